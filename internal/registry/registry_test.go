package registry

import (
	"context"
	"testing"

	"github.com/creatorlab/labengine/internal/model"
)

func stubModule(id string, typ model.ModuleType, reply string) model.ModuleDefinition {
	return model.ModuleDefinition{
		ID:   id,
		Name: id,
		Type: typ,
		Execute: func(ctx context.Context, in model.ModuleInput) (*model.ModuleOutput, error) {
			return &model.ModuleOutput{Success: true, Content: reply, Type: model.OutputText}, nil
		},
	}
}

func TestRegisterAndGet(t *testing.T) {
	r := New()
	r.Register(stubModule("script-coach", model.TypeText, "ok"))

	def, ok := r.Get("script-coach")
	if !ok {
		t.Fatal("expected module to be found")
	}
	if def.Type != model.TypeText {
		t.Errorf("expected type text, got %s", def.Type)
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("expected missing module to be absent")
	}
}

func TestDuplicateRegistrationOverwrites(t *testing.T) {
	r := New()
	r.Register(stubModule("x", model.TypeText, "first"))
	r.Register(stubModule("x", model.TypeText, "second"))

	if len(r.All()) != 1 {
		t.Fatalf("expected exactly 1 entry, got %d", len(r.All()))
	}

	def, _ := r.Get("x")
	out, err := def.Execute(context.Background(), model.ModuleInput{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.Content != "second" {
		t.Errorf("expected second definition in effect, got %q", out.Content)
	}
}

func TestByType(t *testing.T) {
	r := New()
	r.Register(stubModule("a", model.TypeText, ""))
	r.Register(stubModule("b", model.TypeText, ""))
	r.Register(stubModule("c", model.TypeImage, ""))

	if got := len(r.ByType(model.TypeText)); got != 2 {
		t.Errorf("expected 2 text modules, got %d", got)
	}
	if got := len(r.ByType(model.TypeVideo)); got != 0 {
		t.Errorf("expected 0 video modules, got %d", got)
	}
}

func TestUnregister(t *testing.T) {
	r := New()
	r.Register(stubModule("a", model.TypeText, ""))

	if !r.Unregister("a") {
		t.Error("expected unregister to return true")
	}
	if r.Unregister("a") {
		t.Error("expected second unregister to return false")
	}
	if _, ok := r.Get("a"); ok {
		t.Error("expected module gone after unregister")
	}
}
