// Package template provides named, parameterized prompt construction.
//
// Rendering is literal text replacement: every {{name}} occurrence is
// replaced with the supplied value, or with the empty string when the
// variable is absent. There is no conditional logic, escaping, or
// recursive expansion; values containing {{...}} are emitted verbatim.
package template

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/creatorlab/labengine/internal/model"
)

// ErrNotFound is returned when rendering an unregistered template id.
var ErrNotFound = fmt.Errorf("template not found")

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.-]+)\s*\}\}`)

// Service stores prompt templates by id.
type Service struct {
	mu        sync.RWMutex
	templates map[string]model.PromptTemplate
}

// NewService creates an empty template service.
func NewService() *Service {
	return &Service{templates: make(map[string]model.PromptTemplate)}
}

// Register inserts or overwrites a template by id.
func (s *Service) Register(t model.PromptTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = t
}

// Get returns the template for id, if registered.
func (s *Service) Get(id string) (model.PromptTemplate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	return t, ok
}

// List returns all registered templates.
func (s *Service) List() []model.PromptTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.PromptTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	return out
}

// Render substitutes variables into the template registered under id.
// Unsupplied variables render as the empty string. Substitution is a
// single pass; values are never re-scanned for placeholders.
func (s *Service) Render(id string, vars map[string]string) (string, error) {
	t, ok := s.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return Expand(t.Content, vars), nil
}

// Expand performs placeholder substitution on arbitrary content.
func Expand(content string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(content, func(m string) string {
		name := strings.TrimSpace(m[2 : len(m)-2])
		return vars[name]
	})
}
