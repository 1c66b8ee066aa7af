package template

import (
	"errors"
	"testing"

	"github.com/creatorlab/labengine/internal/model"
)

func TestRenderRoundTrip(t *testing.T) {
	s := NewService()
	s.Register(model.PromptTemplate{ID: "greet", Content: "Hello {{name}}!", Variables: []string{"name"}})

	got, err := s.Render("greet", map[string]string{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hello Ada!" {
		t.Errorf("expected 'Hello Ada!', got %q", got)
	}
}

func TestRenderMissingVariableIsEmpty(t *testing.T) {
	s := NewService()
	s.Register(model.PromptTemplate{ID: "greet", Content: "Hello {{name}}!"})

	got, err := s.Render("greet", map[string]string{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hello !" {
		t.Errorf("expected 'Hello !', got %q", got)
	}
}

func TestRenderNoPlaceholdersUnchanged(t *testing.T) {
	s := NewService()
	content := "No placeholders here, just braces { } and text."
	s.Register(model.PromptTemplate{ID: "plain", Content: content})

	got, err := s.Render("plain", map[string]string{"unused": "value"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != content {
		t.Errorf("expected content unchanged, got %q", got)
	}
}

func TestRenderAllOccurrences(t *testing.T) {
	s := NewService()
	s.Register(model.PromptTemplate{ID: "echo", Content: "{{x}} and {{x}} and {{y}}"})

	got, _ := s.Render("echo", map[string]string{"x": "a", "y": "b"})
	if got != "a and a and b" {
		t.Errorf("expected 'a and a and b', got %q", got)
	}
}

func TestRenderValueWithPlaceholderNotExpanded(t *testing.T) {
	s := NewService()
	s.Register(model.PromptTemplate{ID: "t", Content: "{{a}}"})

	// Single pass: a value containing {{b}} must come through verbatim.
	got, _ := s.Render("t", map[string]string{"a": "{{b}}", "b": "nope"})
	if got != "{{b}}" {
		t.Errorf("expected '{{b}}' verbatim, got %q", got)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	s := NewService()
	_, err := s.Render("nope", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRegisterOverwrites(t *testing.T) {
	s := NewService()
	s.Register(model.PromptTemplate{ID: "t", Content: "one"})
	s.Register(model.PromptTemplate{ID: "t", Content: "two"})

	if len(s.List()) != 1 {
		t.Fatalf("expected 1 template, got %d", len(s.List()))
	}
	got, _ := s.Render("t", nil)
	if got != "two" {
		t.Errorf("expected second registration to win, got %q", got)
	}
}
