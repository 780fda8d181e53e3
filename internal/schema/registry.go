package schema

import (
	"fmt"
	"strings"
	"sync"
)

// Registry holds all model definitions for one sync run. It preserves
// registration order: model files are loaded in sorted path order and
// declarations in file order, so iterating Models is deterministic and the
// generated output is byte-stable across runs.
type Registry struct {
	models map[string]*ModelDefinition
	order  []string
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]*ModelDefinition),
	}
}

// Register adds a model definition. Registering a duplicate name is an error.
func (r *Registry) Register(m *ModelDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.models[m.Name]; ok {
		return fmt.Errorf("model %s is already defined in %s", m.Name, existing.File)
	}
	r.models[m.Name] = m
	r.order = append(r.order, m.Name)
	return nil
}

// Get retrieves a model by exact name.
func (r *Registry) Get(name string) (*ModelDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[name]
	return m, ok
}

// GetFold retrieves a model by case-insensitive name match, in registration
// order. Used by the resolver's naming-convention foreign-key inference.
func (r *Registry) GetFold(name string) (*ModelDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.order {
		if strings.EqualFold(n, name) {
			return r.models[n], true
		}
	}
	return nil, false
}

// Models returns all model definitions in registration order.
func (r *Registry) Models() []*ModelDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ModelDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.models[name])
	}
	return out
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
