package instrument

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function is a helper callable from computed attribute expressions.
type Function func(args ...any) (any, error)

// VariadicArity marks a function accepting any number of arguments.
const VariadicArity = -1

type registeredFunction struct {
	name  string
	arity int
	fn    Function
}

// FunctionRegistry stores expression helpers keyed by case-insensitive name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]registeredFunction
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]registeredFunction),
	}
}

// Register stores a variadic fn under name.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	return r.RegisterArity(name, VariadicArity, fn)
}

// RegisterArity stores fn under name; Call rejects invocations with a
// different argument count unless arity is VariadicArity.
func (r *FunctionRegistry) RegisterArity(name string, arity int, fn Function) error {
	if fn == nil {
		return fmt.Errorf("instrument: function %q is nil", name)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("instrument: function name must not be empty")
	}
	if arity < VariadicArity {
		return fmt.Errorf("instrument: function %q has invalid arity %d", name, arity)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]registeredFunction)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("instrument: function %q already registered", name)
	}
	r.functions[key] = registeredFunction{name: name, arity: arity, fn: fn}
	return nil
}

// Clone returns a shallow copy of the registry so evaluators are unaffected
// by later registrations.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]registeredFunction, len(r.functions)),
	}
	for key, entry := range r.functions {
		clone.functions[key] = entry
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("instrument: function registry is nil")
	}
	r.mu.RLock()
	entry, ok := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("instrument: function %q not registered", name)
	}
	if entry.arity != VariadicArity && entry.arity != len(args) {
		return nil, fmt.Errorf("instrument: function %q expects %d arguments, got %d", entry.name, entry.arity, len(args))
	}
	return entry.fn(args...)
}

// Names returns registered function names, lower-cased and sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for key := range r.functions {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}
