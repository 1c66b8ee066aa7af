// Package store provides the persistence interface and SQLite implementation
// for execution records and conversation contexts.
package store

import (
	"context"
	"errors"

	"github.com/creatorlab/labengine/internal/model"
)

// ErrNotFound is returned by point lookups for absent rows.
var ErrNotFound = errors.New("not found")

// CreateExecutionParams holds the fields for a new execution row.
// Input is the serialized caller-supplied snapshot (content and options
// only; the derived conversational context is never stored).
type CreateExecutionParams struct {
	ID       string
	UserID   string
	ModuleID string
	Input    string
}

// ListExecutionsParams filters execution history queries.
type ListExecutionsParams struct {
	UserID   string
	ModuleID string // optional
	Limit    int
}

// SearchExecutionsParams holds parameters for history text search.
type SearchExecutionsParams struct {
	UserID string // optional
	Query  string
	Limit  int
}

// ExecutionStore persists execution lifecycle records. All terminal
// transitions apply only to rows still in the running state, so a
// terminal row can never be resurrected.
type ExecutionStore interface {
	// CreateExecution inserts a row with status=running.
	CreateExecution(ctx context.Context, p CreateExecutionParams) error

	// CompleteExecution moves a running row to completed.
	CompleteExecution(ctx context.Context, id, output string, durationMs int64) error

	// FailExecution moves a running row to failed, preserving the error
	// message verbatim.
	FailExecution(ctx context.Context, id, errMsg string, durationMs int64) error

	// CancelExecution moves a running row to cancelled. Returns whether
	// the transition happened.
	CancelExecution(ctx context.Context, id string, durationMs int64) (bool, error)

	// GetExecution returns the row for id or ErrNotFound.
	GetExecution(ctx context.Context, id string) (*model.Execution, error)

	// ListExecutions returns a user's rows, most recently created first.
	ListExecutions(ctx context.Context, p ListExecutionsParams) ([]model.Execution, error)

	// SearchExecutions finds rows whose input or output matches the query
	// substring.
	SearchExecutions(ctx context.Context, p SearchExecutionsParams) ([]model.Execution, error)

	// ExportExecutions returns all rows, optionally filtered by user, in
	// creation order.
	ExportExecutions(ctx context.Context, userID string) ([]model.Execution, error)
}

// ContextStore persists conversation contexts keyed by (user, module).
type ContextStore interface {
	// GetContext returns the stored context or ErrNotFound.
	GetContext(ctx context.Context, userID, moduleID string) (*model.MemoryContext, error)

	// SaveContext inserts or replaces the context for its key.
	SaveContext(ctx context.Context, mc *model.MemoryContext) error

	// DeleteContext removes the context for the key if present.
	DeleteContext(ctx context.Context, userID, moduleID string) error
}

// Store is the full persistence surface used by the engine.
type Store interface {
	ExecutionStore
	ContextStore

	// Close closes the store.
	Close() error
}
