package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/creatorlab/labengine/internal/memory"
	"github.com/creatorlab/labengine/internal/model"
	"github.com/creatorlab/labengine/internal/registry"
	"github.com/creatorlab/labengine/internal/store"
)

type fixture struct {
	registry *registry.Registry
	memory   *memory.Service
	store    *store.SQLiteStore
	executor *Executor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	reg := registry.New()
	mem := memory.NewService(s, 0)
	return &fixture{
		registry: reg,
		memory:   mem,
		store:    s,
		executor: New(reg, mem, s, 0),
	}
}

func echoModule(id string) model.ModuleDefinition {
	return model.ModuleDefinition{
		ID:   id,
		Name: id,
		Type: model.TypeText,
		Execute: func(ctx context.Context, in model.ModuleInput) (*model.ModuleOutput, error) {
			return &model.ModuleOutput{
				Success: true,
				Content: "echo: " + in.Content,
				Type:    model.OutputText,
			}, nil
		},
	}
}

func TestExecuteSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.registry.Register(echoModule("echo"))

	res, err := f.executor.Execute(ctx, "echo", model.ModuleInput{UserID: "u", Content: "hello"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Output.Content != "echo: hello" {
		t.Errorf("unexpected output %q", res.Output.Content)
	}
	if res.ExecutionID == "" {
		t.Error("expected execution id")
	}

	e, err := f.executor.GetExecution(ctx, res.ExecutionID)
	if err != nil {
		t.Fatalf("get execution: %v", err)
	}
	if e.Status != model.StatusCompleted {
		t.Errorf("expected completed, got %s", e.Status)
	}
	if e.Output == "" {
		t.Error("expected serialized output on success")
	}

	// Both turns of the exchange recorded.
	mc, _ := f.memory.GetContext(ctx, "u", "echo")
	if len(mc.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(mc.Messages))
	}
	if mc.Messages[0].Role != model.RoleUser || mc.Messages[1].Role != model.RoleAssistant {
		t.Errorf("unexpected roles %s/%s", mc.Messages[0].Role, mc.Messages[1].Role)
	}
}

func TestExecuteInjectsContext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var seenContext string
	f.registry.Register(model.ModuleDefinition{
		ID: "capture", Type: model.TypeText,
		Execute: func(ctx context.Context, in model.ModuleInput) (*model.ModuleOutput, error) {
			seenContext = in.Context
			return &model.ModuleOutput{Success: true, Content: "ok", Type: model.OutputText}, nil
		},
	})

	f.executor.Execute(ctx, "capture", model.ModuleInput{UserID: "u", Content: "first turn"})
	f.executor.Execute(ctx, "capture", model.ModuleInput{UserID: "u", Content: "second turn"})

	if !strings.Contains(seenContext, "user: first turn") {
		t.Errorf("expected prior user turn in context, got %q", seenContext)
	}
	if !strings.Contains(seenContext, "assistant: ok") {
		t.Errorf("expected prior assistant turn in context, got %q", seenContext)
	}
	if !strings.Contains(seenContext, "user: second turn") {
		t.Errorf("expected current turn in context, got %q", seenContext)
	}
}

func TestExecuteInputSnapshotExcludesContext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.registry.Register(echoModule("echo"))

	f.executor.Execute(ctx, "echo", model.ModuleInput{UserID: "u", Content: "one"})
	res, _ := f.executor.Execute(ctx, "echo", model.ModuleInput{
		UserID: "u", Content: "two", Options: map[string]any{"tone": "dry"},
	})

	e, _ := f.executor.GetExecution(ctx, res.ExecutionID)
	var snap map[string]any
	if err := json.Unmarshal([]byte(e.Input), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap["content"] != "two" {
		t.Errorf("expected caller content, got %v", snap["content"])
	}
	if _, ok := snap["context"]; ok {
		t.Error("derived context must not be persisted in the input snapshot")
	}
	if opts, ok := snap["options"].(map[string]any); !ok || opts["tone"] != "dry" {
		t.Errorf("expected options persisted, got %v", snap["options"])
	}
}

func TestExecuteModuleFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.registry.Register(model.ModuleDefinition{
		ID: "broken", Type: model.TypeText,
		Execute: func(ctx context.Context, in model.ModuleInput) (*model.ModuleOutput, error) {
			return nil, fmt.Errorf("provider exploded")
		},
	})

	_, err := f.executor.Execute(ctx, "broken", model.ModuleInput{UserID: "u", Content: "hi"})
	if err == nil {
		t.Fatal("expected error from failing module")
	}

	rows, _ := f.executor.History(ctx, "u", "broken", 1)
	if len(rows) != 1 {
		t.Fatalf("expected 1 execution row, got %d", len(rows))
	}
	if rows[0].Status != model.StatusFailed {
		t.Errorf("expected failed, got %s", rows[0].Status)
	}
	if rows[0].Error != "provider exploded" {
		t.Errorf("expected verbatim error message, got %q", rows[0].Error)
	}
	if rows[0].Output != "" {
		t.Error("expected no partial output on failure")
	}

	// Failure records the user turn but never an assistant turn.
	mc, _ := f.memory.GetContext(ctx, "u", "broken")
	if len(mc.Messages) != 1 {
		t.Fatalf("expected only the user message, got %d", len(mc.Messages))
	}
	if mc.Messages[0].Role != model.RoleUser {
		t.Errorf("expected user role, got %s", mc.Messages[0].Role)
	}
}

func TestExecuteUnknownModule(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.executor.Execute(ctx, "nonexistent", model.ModuleInput{UserID: "u", Content: "hi"})
	if !errors.Is(err, ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}

	// No execution record may exist for this failure.
	all, _ := f.store.ExportExecutions(ctx, "")
	if len(all) != 0 {
		t.Errorf("expected no execution rows, got %d", len(all))
	}
}

func TestExecutionNeverLeftRunning(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.registry.Register(echoModule("echo"))
	f.registry.Register(model.ModuleDefinition{
		ID: "broken", Type: model.TypeText,
		Execute: func(ctx context.Context, in model.ModuleInput) (*model.ModuleOutput, error) {
			return nil, fmt.Errorf("boom")
		},
	})

	f.executor.Execute(ctx, "echo", model.ModuleInput{UserID: "u", Content: "a"})
	f.executor.Execute(ctx, "broken", model.ModuleInput{UserID: "u", Content: "b"})

	all, _ := f.store.ExportExecutions(ctx, "")
	for _, e := range all {
		if e.Status == model.StatusRunning {
			t.Errorf("execution %s left running", e.ID)
		}
	}
}

func TestHistoryOrderingAndLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.registry.Register(echoModule("echo"))

	var last string
	for i := 0; i < 7; i++ {
		res, err := f.executor.Execute(ctx, "echo", model.ModuleInput{
			UserID: "u", Content: fmt.Sprintf("msg-%d", i),
		})
		if err != nil {
			t.Fatalf("execute %d: %v", i, err)
		}
		last = res.ExecutionID
		time.Sleep(2 * time.Millisecond)
	}

	rows, err := f.executor.History(ctx, "u", "echo", 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	if rows[0].ID != last {
		t.Errorf("expected most recent execution first, got %s", rows[0].ID)
	}
}

func TestCancelExecution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	started := make(chan string, 1)
	f.registry.Register(model.ModuleDefinition{
		ID: "slow", Type: model.TypeText,
		Execute: func(ctx context.Context, in model.ModuleInput) (*model.ModuleOutput, error) {
			started <- "running"
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})

	errCh := make(chan error, 1)
	var execID string
	go func() {
		_, err := f.executor.Execute(ctx, "slow", model.ModuleInput{UserID: "u", Content: "go"})
		errCh <- err
	}()

	<-started
	// The execution row exists by now; find its id.
	for i := 0; i < 50; i++ {
		rows, _ := f.executor.History(ctx, "u", "slow", 1)
		if len(rows) == 1 {
			execID = rows[0].ID
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if execID == "" {
		t.Fatal("execution row never appeared")
	}

	if !f.executor.CancelExecution(ctx, execID) {
		t.Fatal("expected cancel of active job to return true")
	}

	if err := <-errCh; err == nil {
		t.Fatal("expected cancelled execution to return an error")
	}

	e, _ := f.executor.GetExecution(ctx, execID)
	if e.Status != model.StatusCancelled {
		t.Errorf("expected cancelled, got %s", e.Status)
	}

	// No longer active.
	if f.executor.CancelExecution(ctx, execID) {
		t.Error("expected second cancel to return false")
	}
}

func TestCancelFinishedExecutionReturnsFalse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.registry.Register(echoModule("echo"))

	res, err := f.executor.Execute(ctx, "echo", model.ModuleInput{UserID: "u", Content: "hi"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	// Recreate the window where the module has completed but its
	// active-map entry has not been removed yet.
	f.executor.mu.Lock()
	f.executor.active[res.ExecutionID] = func() {}
	f.executor.mu.Unlock()

	if f.executor.CancelExecution(ctx, res.ExecutionID) {
		t.Error("expected false when the row is already terminal")
	}
	e, _ := f.executor.GetExecution(ctx, res.ExecutionID)
	if e.Status != model.StatusCompleted {
		t.Errorf("expected completed to stick, got %s", e.Status)
	}
}

func TestCancelUnknownExecution(t *testing.T) {
	f := newFixture(t)
	if f.executor.CancelExecution(context.Background(), "not-a-job") {
		t.Error("expected false for unknown execution")
	}
}
