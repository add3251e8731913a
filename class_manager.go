package instrument

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// ClassManager instruments the attributes of one entity class. It owns the
// class level Getter; each Attribute it creates owns its call site Getter.
type ClassManager struct {
	class  Class
	getter *Getter

	mu         sync.RWMutex
	attributes map[string]*Attribute
}

// NewClassManager constructs a manager for class resolving through globals.
func NewClassManager(class Class, globals Globals, opts ...Option) (*ClassManager, error) {
	if class == nil {
		return nil, fmt.Errorf("instrument: class must not be nil")
	}
	if class.Kind() == reflect.Pointer {
		class = class.Elem()
	}
	getter, err := New(globals, opts...)
	if err != nil {
		return nil, err
	}
	return &ClassManager{
		class:      class,
		getter:     getter,
		attributes: make(map[string]*Attribute),
	}, nil
}

// Instrument registers an attribute for key backed by impl.
func (m *ClassManager) Instrument(key string, impl Impl, opts ...AttributeOption) (*Attribute, error) {
	if key == "" {
		return nil, fmt.Errorf("instrument: attribute key must not be empty")
	}
	if impl == nil {
		return nil, fmt.Errorf("instrument: attribute %q impl is nil", key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.attributes[key]; exists {
		return nil, fmt.Errorf("instrument: attribute %q already instrumented on %s", key, m.class.Name())
	}
	attr := NewAttribute(key, m.class, impl, opts...)
	m.attributes[key] = attr
	return attr, nil
}

// Attribute returns the attribute registered for key.
func (m *ClassManager) Attribute(key string) (*Attribute, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	attr, ok := m.attributes[key]
	return attr, ok
}

// Getter returns the class level Getter.
func (m *ClassManager) Getter() *Getter {
	return m.getter
}

// Class returns the managed class.
func (m *ClassManager) Class() Class {
	return m.class
}

// Bind binds the class Getter through the attribute registered for key. An
// unknown key yields the unbound Getter.
func (m *ClassManager) Bind(key string) Callable {
	attr, ok := m.Attribute(key)
	if !ok {
		return m.getter.Bind(nil, m.class)
	}
	return m.getter.Bind(attr, m.class)
}

// Get reads attribute key of instance.
func (m *ClassManager) Get(instance any, key string) (any, error) {
	attr, ok := m.Attribute(key)
	if !ok {
		return nil, fmt.Errorf("instrument: %s has no attribute %q", m.class.Name(), key)
	}
	return m.getter.Call(attr, instance, m.class)
}

// Keys returns the instrumented keys sorted alphabetically.
func (m *ClassManager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.attributes))
	for key := range m.attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// FieldDescriptor describes an instrumented attribute.
type FieldDescriptor struct {
	Key                string `json:"key"`
	Impl               string `json:"impl"`
	SupportsPopulation bool   `json:"supports_population"`
	Phase              string `json:"phase"`
}

// Describe lists the instrumented attributes with their impl type and the
// state of their call site cache.
func (m *ClassManager) Describe() []FieldDescriptor {
	keys := m.Keys()
	fields := make([]FieldDescriptor, 0, len(keys))
	for _, key := range keys {
		attr, ok := m.Attribute(key)
		if !ok {
			continue
		}
		impl, _ := attr.Impl()
		supports, _ := attr.SupportsPopulation()
		phase := PhaseUninitialized
		if cached := attr.GetterCache(); cached != nil {
			phase = cached.Phase()
		}
		fields = append(fields, FieldDescriptor{
			Key:                key,
			Impl:               typeName(impl),
			SupportsPopulation: supports,
			Phase:              phase.String(),
		})
	}
	return fields
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}
