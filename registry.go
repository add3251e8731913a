package instrument

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// GlobalsName is the well-known registry name Reconstruct resolves the
// collaborator bundle from.
const GlobalsName = "orm.attributes"

// Allocator produces a bare Getter for a type tag. Reconstruct fills in
// globals, name and configuration.
type Allocator func() *Getter

// Registry maps well-known names to collaborator bundles and type tags to
// allocators.
type Registry struct {
	mu         sync.RWMutex
	globals    map[string]Globals
	allocators map[string]Allocator
}

// NewRegistry constructs a registry able to allocate the built-in Getter.
func NewRegistry() *Registry {
	return &Registry{
		globals: make(map[string]Globals),
		allocators: map[string]Allocator{
			GetterType: func() *Getter { return &Getter{} },
		},
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used by Reconstruct.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// SetGlobals publishes g under name, replacing any previous bundle.
func (r *Registry) SetGlobals(name string, g Globals) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("instrument: globals name must not be empty")
	}
	if g == nil {
		return fmt.Errorf("instrument: globals %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.globals == nil {
		r.globals = make(map[string]Globals)
	}
	r.globals[name] = g
	return nil
}

// RemoveGlobals drops the bundle published under name.
func (r *Registry) RemoveGlobals(name string) {
	r.mu.Lock()
	delete(r.globals, name)
	r.mu.Unlock()
}

// Globals returns the bundle published under name.
func (r *Registry) Globals(name string) (Globals, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: registry is nil", ErrRegistryLookup)
	}
	r.mu.RLock()
	g := r.globals[name]
	r.mu.RUnlock()
	if g == nil {
		return nil, fmt.Errorf("%w: globals %q not registered", ErrRegistryLookup, name)
	}
	return g, nil
}

// RegisterAllocator stores fn under tag guarding against duplicates.
func (r *Registry) RegisterAllocator(tag string, fn Allocator) error {
	if fn == nil {
		return fmt.Errorf("instrument: allocator %q is nil", tag)
	}
	if strings.TrimSpace(tag) == "" {
		return fmt.Errorf("instrument: allocator tag must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.allocators == nil {
		r.allocators = make(map[string]Allocator)
	}
	if _, exists := r.allocators[tag]; exists {
		return fmt.Errorf("instrument: allocator %q already registered", tag)
	}
	r.allocators[tag] = fn
	return nil
}

// Allocate produces a bare Getter for tag.
func (r *Registry) Allocate(tag string) (*Getter, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: registry is nil", ErrAllocation)
	}
	r.mu.RLock()
	fn := r.allocators[tag]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("%w: type %q has no allocator", ErrAllocation, tag)
	}
	g := fn()
	if g == nil {
		return nil, fmt.Errorf("%w: type %q produced no instance", ErrAllocation, tag)
	}
	return g, nil
}

// Names returns the published globals names sorted alphabetically.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.globals))
	for name := range r.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
