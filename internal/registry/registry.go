// Package registry holds the in-memory catalog of executable modules.
//
// The registry is the single source of truth mapping a module id to its
// definition. Registration happens at process start; from the executor's
// perspective the registry is read-only. Duplicate registration is
// last-write-wins by contract (logged, never an error).
package registry

import (
	"sync"

	"github.com/creatorlab/labengine/internal/logging"
	"github.com/creatorlab/labengine/internal/model"
)

// Registry maps module ids to their definitions.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]model.ModuleDefinition
}

// New creates an empty registry. Construct once at startup and inject it
// into the executor; there is no package-level instance.
func New() *Registry {
	return &Registry{modules: make(map[string]model.ModuleDefinition)}
}

// Register inserts or overwrites the entry for def.ID.
func (r *Registry) Register(def model.ModuleDefinition) {
	r.mu.Lock()
	_, existed := r.modules[def.ID]
	r.modules[def.ID] = def
	r.mu.Unlock()

	if existed {
		logging.Warn("module re-registered, previous definition replaced", "module", def.ID)
		return
	}
	logging.Info("module registered", "module", def.ID, "type", def.Type)
}

// Get returns the definition for id, if registered. Never errors.
func (r *Registry) Get(id string) (model.ModuleDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.modules[id]
	return def, ok
}

// All returns a snapshot of every registered module.
func (r *Registry) All() []model.ModuleDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ModuleDefinition, 0, len(r.modules))
	for _, def := range r.modules {
		out = append(out, def)
	}
	return out
}

// ByType returns all modules with the given type tag.
func (r *Registry) ByType(t model.ModuleType) []model.ModuleDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.ModuleDefinition
	for _, def := range r.modules {
		if def.Type == t {
			out = append(out, def)
		}
	}
	return out
}

// Unregister removes the entry for id if present. Development hot-reload
// path, not a normal runtime operation.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[id]; !ok {
		return false
	}
	delete(r.modules, id)
	return true
}
