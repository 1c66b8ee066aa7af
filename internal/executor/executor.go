// Package executor runs registered modules with lifecycle tracking,
// memory injection, and durable auditing.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/creatorlab/labengine/internal/logging"
	"github.com/creatorlab/labengine/internal/memory"
	"github.com/creatorlab/labengine/internal/model"
	"github.com/creatorlab/labengine/internal/registry"
	"github.com/creatorlab/labengine/internal/store"
)

// ErrModuleNotFound is returned when the requested module id is not
// registered. No execution record exists for this failure.
var ErrModuleNotFound = errors.New("module not found")

// Result is the caller-facing outcome of a successful execution.
type Result struct {
	ExecutionID string              `json:"execution_id"`
	ModuleID    string              `json:"module_id"`
	Output      *model.ModuleOutput `json:"output"`
	DurationMs  int64               `json:"duration_ms"`
}

// inputSnapshot is what gets persisted as the execution's input: the
// caller-supplied fields only, so stored inputs stay reproducible. The
// derived conversational context is deliberately excluded.
type inputSnapshot struct {
	Content string         `json:"content"`
	Options map[string]any `json:"options,omitempty"`
}

// Executor orchestrates module invocations. Registry, memory, and the
// execution store are injected at construction.
type Executor struct {
	registry      *registry.Registry
	memory        *memory.Service
	store         store.ExecutionStore
	contextBudget int

	mu      sync.Mutex
	entropy *rand.Rand
	active  map[string]context.CancelFunc
}

// New creates an executor. contextBudget caps the flattened context
// injected into a module, in characters; <= 0 means unlimited.
func New(reg *registry.Registry, mem *memory.Service, es store.ExecutionStore, contextBudget int) *Executor {
	return &Executor{
		registry:      reg,
		memory:        mem,
		store:         es,
		contextBudget: contextBudget,
		entropy:       rand.New(rand.NewSource(time.Now().UnixNano())),
		active:        make(map[string]context.CancelFunc),
	}
}

func (e *Executor) newID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), e.entropy).String()
}

// Execute runs the module registered under moduleID against input.
//
// The invocation is recorded before the module runs and always reaches a
// terminal status before Execute returns. The caller's message lands in
// memory whether or not the module succeeds; the assistant's reply is
// appended only on success.
func (e *Executor) Execute(ctx context.Context, moduleID string, input model.ModuleInput) (*Result, error) {
	def, ok := e.registry.Get(moduleID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, moduleID)
	}

	snapshot, err := json.Marshal(inputSnapshot{Content: input.Content, Options: input.Options})
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}

	execID := e.newID()
	start := time.Now()

	if err := e.store.CreateExecution(ctx, store.CreateExecutionParams{
		ID:       execID,
		UserID:   input.UserID,
		ModuleID: moduleID,
		Input:    string(snapshot),
	}); err != nil {
		return nil, err
	}

	logging.Debug("execution started", "execution", execID, "module", moduleID, "user", input.UserID)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.mu.Lock()
	e.active[execID] = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.active, execID)
		e.mu.Unlock()
	}()

	output, err := e.run(runCtx, def, input, moduleID)
	durationMs := time.Since(start).Milliseconds()

	if err != nil {
		// The running-only guard keeps a concurrent cancellation's
		// terminal state in place; background context so the row
		// reaches a terminal status even when ctx is already dead.
		if ferr := e.store.FailExecution(context.Background(), execID, err.Error(), durationMs); ferr != nil {
			logging.Error("failed to record execution failure", "execution", execID, "error", ferr)
		}
		logging.Warn("execution failed", "execution", execID, "module", moduleID, "error", err)
		return nil, fmt.Errorf("execute %s: %w", moduleID, err)
	}

	outJSON, err := json.Marshal(output)
	if err != nil {
		e.store.FailExecution(context.Background(), execID, err.Error(), durationMs)
		return nil, fmt.Errorf("encode output: %w", err)
	}
	if err := e.store.CompleteExecution(context.Background(), execID, string(outJSON), durationMs); err != nil {
		return nil, err
	}

	logging.Debug("execution completed", "execution", execID, "module", moduleID, "duration_ms", durationMs)

	return &Result{
		ExecutionID: execID,
		ModuleID:    moduleID,
		Output:      output,
		DurationMs:  durationMs,
	}, nil
}

// run performs the memory round-trip around the module call: user turn in,
// bounded context injected, assistant turn recorded on success only.
func (e *Executor) run(ctx context.Context, def model.ModuleDefinition, input model.ModuleInput, moduleID string) (*model.ModuleOutput, error) {
	if err := e.memory.AddMessage(ctx, input.UserID, moduleID, model.RoleUser, input.Content); err != nil {
		return nil, err
	}

	messages, err := e.memory.RecentMessages(ctx, input.UserID, moduleID, 0)
	if err != nil {
		return nil, err
	}
	input.Context = memory.Flatten(messages, e.contextBudget)

	output, err := def.Execute(ctx, input)
	if err != nil {
		return nil, err
	}
	if output == nil {
		return nil, fmt.Errorf("module returned no output")
	}

	if err := e.memory.AddMessage(ctx, input.UserID, moduleID, model.RoleAssistant, output.Content); err != nil {
		return nil, err
	}

	return output, nil
}

// History returns the most recent executions for a user, optionally
// filtered by module, most recently created first.
func (e *Executor) History(ctx context.Context, userID, moduleID string, limit int) ([]model.Execution, error) {
	return e.store.ListExecutions(ctx, store.ListExecutionsParams{
		UserID:   userID,
		ModuleID: moduleID,
		Limit:    limit,
	})
}

// GetExecution returns one execution record by id.
func (e *Executor) GetExecution(ctx context.Context, id string) (*model.Execution, error) {
	return e.store.GetExecution(ctx, id)
}

// CancelExecution aborts an in-flight execution. The invocation's context
// is cancelled, which propagates through the module into any provider I/O,
// and the record moves to cancelled. Returns false when the id is not an
// active job or its row already reached a terminal state.
func (e *Executor) CancelExecution(ctx context.Context, id string) bool {
	e.mu.Lock()
	cancel, ok := e.active[id]
	if ok {
		delete(e.active, id)
	}
	e.mu.Unlock()
	if !ok {
		return false
	}

	// Mark the row first so the module's failure path, which unwinds as
	// soon as the context dies, hits an already-terminal row.
	transitioned, err := e.store.CancelExecution(ctx, id, 0)
	if err != nil {
		logging.Error("failed to record cancellation", "execution", id, "error", err)
	}
	cancel()
	if !transitioned {
		// The module finished before its active-map entry was removed.
		return false
	}
	logging.Info("execution cancelled", "execution", id)
	return true
}
