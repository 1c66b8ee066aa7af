// Package model defines the core engine data types.
package model

import (
	"context"
	"time"
)

// ModuleType classifies what a module primarily produces.
type ModuleType string

const (
	TypeText       ModuleType = "text"
	TypeImage      ModuleType = "image"
	TypeVideo      ModuleType = "video"
	TypeAudio      ModuleType = "audio"
	TypeMultimodal ModuleType = "multimodal"
)

// OutputType classifies the content of a single module result.
type OutputType string

const (
	OutputText  OutputType = "text"
	OutputImage OutputType = "image"
	OutputVideo OutputType = "video"
	OutputAudio OutputType = "audio"
	OutputJSON  OutputType = "json"
)

// ExecutionStatus is the lifecycle state of one execution record.
type ExecutionStatus string

const (
	StatusRunning   ExecutionStatus = "running"
	StatusCompleted ExecutionStatus = "completed"
	StatusFailed    ExecutionStatus = "failed"
	StatusCancelled ExecutionStatus = "cancelled"
)

// Message roles in a conversation context.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ModuleInput is the per-invocation input handed to a module.
// Context is derived conversational history, populated by the executor;
// callers never supply it.
type ModuleInput struct {
	UserID  string         `json:"user_id"`
	Content string         `json:"content"`
	Options map[string]any `json:"options,omitempty"`
	Context string         `json:"-"`
}

// ModuleOutput is the per-invocation result produced by a module.
type ModuleOutput struct {
	Success  bool           `json:"success"`
	Content  string         `json:"content"`
	Type     OutputType     `json:"type"`
	Data     map[string]any `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ExecuteFunc is a module's behavior. It must be pure with respect to the
// registry and executor; the context carries cancellation through to any
// provider I/O the module performs.
type ExecuteFunc func(ctx context.Context, input ModuleInput) (*ModuleOutput, error)

// ModuleDefinition is a registered module: static metadata plus behavior.
// Definitions are registered at startup and never mutated afterwards.
type ModuleDefinition struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Type         ModuleType     `json:"type"`
	Capabilities []string       `json:"capabilities,omitempty"`
	Config       map[string]any `json:"config,omitempty"`
	Execute      ExecuteFunc    `json:"-"`
}

// Execution is the durable record of one invocation attempt.
// Status only ever moves running -> completed|failed|cancelled.
type Execution struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	ModuleID    string          `json:"module_id"`
	Input       string          `json:"input"`
	Output      string          `json:"output,omitempty"`
	Status      ExecutionStatus `json:"status"`
	Error       string          `json:"error,omitempty"`
	DurationMs  int64           `json:"duration_ms"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// ConversationMessage is one turn in a (user, module) conversation.
type ConversationMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MemoryContext is the bounded conversational state for a (user, module) pair.
type MemoryContext struct {
	UserID   string                `json:"user_id"`
	ModuleID string                `json:"module_id"`
	Messages []ConversationMessage `json:"messages"`
	Metadata map[string]string     `json:"metadata,omitempty"`
}

// PromptTemplate is a named prompt with {{variable}} placeholders.
// Variables is informational; it is not validated against Content.
type PromptTemplate struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	Variables []string `json:"variables,omitempty"`
}

// ValidModuleTypes are the allowed module types.
var ValidModuleTypes = map[ModuleType]bool{
	TypeText:       true,
	TypeImage:      true,
	TypeVideo:      true,
	TypeAudio:      true,
	TypeMultimodal: true,
}
