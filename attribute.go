package instrument

import (
	"fmt"
	"sync"
)

// Attribute is an instrumented attribute descriptor. It is the call site
// Getters route through and owns the call site Getter in an explicit slot.
type Attribute struct {
	key      any
	class    Class
	readOnly bool

	mu    sync.Mutex
	impl  Impl
	cache *Getter
}

// AttributeOption configures an Attribute.
type AttributeOption func(*Attribute)

// WithReadOnlySlot makes the attribute refuse a call site Getter. Reads then
// always take the generic path.
func WithReadOnlySlot() AttributeOption {
	return func(a *Attribute) {
		a.readOnly = true
	}
}

// NewAttribute constructs an attribute storing its value under key.
func NewAttribute(key any, class Class, impl Impl, opts ...AttributeOption) *Attribute {
	a := &Attribute{key: key, class: class, impl: impl}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Key implements CallSite.
func (a *Attribute) Key() (any, error) {
	if a.key == nil {
		return nil, fmt.Errorf("attribute has no key")
	}
	return a.key, nil
}

// Impl implements CallSite.
func (a *Attribute) Impl() (Impl, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.impl == nil {
		return nil, fmt.Errorf("attribute %v has no impl", a.key)
	}
	return a.impl, nil
}

// SetImpl reconfigures the attribute. Call site Getters notice the new
// identity on their next generic call and read the population flag again.
func (a *Attribute) SetImpl(impl Impl) {
	a.mu.Lock()
	a.impl = impl
	a.mu.Unlock()
}

// SupportsPopulation implements CallSite by asking the current impl.
func (a *Attribute) SupportsPopulation() (bool, error) {
	impl, err := a.Impl()
	if err != nil {
		return false, err
	}
	if reporter, ok := impl.(PopulationReporter); ok {
		return reporter.SupportsPopulation(), nil
	}
	return false, nil
}

// GetterCache implements CacheSlot.
func (a *Attribute) GetterCache() *Getter {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cache
}

// AttachGetterCache implements CacheSlot.
func (a *Attribute) AttachGetterCache(g *Getter) (*Getter, error) {
	if a.readOnly {
		return nil, ErrSlotReadOnly
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cache == nil {
		a.cache = g
	}
	return a.cache, nil
}

// Class returns the declaring class.
func (a *Attribute) Class() Class {
	return a.class
}

func (a *Attribute) String() string {
	if a.class == nil {
		return fmt.Sprintf("%v", a.key)
	}
	return fmt.Sprintf("%s.%v", a.class.Name(), a.key)
}
