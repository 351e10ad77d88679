package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/knitgrid/internal/config"
	"github.com/vk/knitgrid/internal/model"
)

// ErrSealed is returned when a definition is added after Seal.
var ErrSealed = errors.New("registry is sealed")

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds pattern definitions and native builtins for a single
// compilation environment.
type Registry struct {
	mu       sync.RWMutex
	patterns map[string]*model.Pattern
	natives  map[string]*Native
	sealed   bool
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		patterns: make(map[string]*model.Pattern),
		natives:  make(map[string]*Native),
	}
}

// AddPattern registers a user or library definition.
func (r *Registry) AddPattern(p *model.Pattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return ErrSealed
	}
	if _, exists := r.natives[p.Name]; exists {
		return fmt.Errorf("pattern '%s' (%s) conflicts with a builtin of the same name", p.Name, p.DeclRange)
	}
	if prev, exists := r.patterns[p.Name]; exists {
		return fmt.Errorf("pattern '%s' already defined at %s", p.Name, prev.DeclRange)
	}
	r.patterns[p.Name] = p
	return nil
}

// PopulateDefinitionsFromModel copies the loaded pattern definitions from the
// config model into the registry, in declaration order.
func (r *Registry) PopulateDefinitionsFromModel(m *config.Model) error {
	for _, name := range m.Order {
		if err := r.AddPattern(m.Patterns[name]); err != nil {
			return err
		}
	}
	return nil
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal was called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Pattern looks up a definition by name.
func (r *Registry) Pattern(name string) (*model.Pattern, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patterns[name]
	return p, ok
}

// Native looks up a builtin by name.
func (r *Registry) Native(name string) (*Native, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.natives[name]
	return n, ok
}

// PatternNames returns all pattern names, sorted.
func (r *Registry) PatternNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.patterns))
	for name := range r.patterns {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NativeNames returns all builtin names, sorted.
func (r *Registry) NativeNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.natives))
	for name := range r.natives {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
