package instrument

import (
	"errors"
	"sync"
	"sync/atomic"
)

// entity owns its storage, like an instrumented object with a basic dict.
type entity struct {
	own *Dict
}

func (e *entity) BasicDict() Mapping {
	return e.own
}

// plainEntity exposes no storage of its own.
type plainEntity struct {
	name string
}

// countingGlobals resolves entities to their own dict unless override is set.
type countingGlobals struct {
	dictCalls  atomic.Int64
	stateCalls atomic.Int64

	mu       sync.Mutex
	override func(instance any) (Mapping, error)
	state    any
	stateErr error
}

func (g *countingGlobals) InstanceDict(instance any) (Mapping, error) {
	g.dictCalls.Add(1)
	g.mu.Lock()
	override := g.override
	g.mu.Unlock()
	if override != nil {
		return override(instance)
	}
	if e, ok := instance.(*entity); ok {
		return e.own, nil
	}
	return nil, errors.New("no dict for instance")
}

func (g *countingGlobals) InstanceState(instance any) (any, error) {
	g.stateCalls.Add(1)
	if g.stateErr != nil {
		return nil, g.stateErr
	}
	if g.state != nil {
		return g.state, nil
	}
	return instance, nil
}

func (g *countingGlobals) setOverride(fn func(instance any) (Mapping, error)) {
	g.mu.Lock()
	g.override = fn
	g.mu.Unlock()
}

// countingImpl records Get calls. It answers from the dict when possible and
// falls back to value.
type countingImpl struct {
	key      any
	supports bool
	value    any
	err      error
	calls    atomic.Int64
}

func (i *countingImpl) Get(_ any, dict Mapping) (any, error) {
	i.calls.Add(1)
	if i.err != nil {
		return nil, i.err
	}
	if dict != nil {
		if value, ok := dict.Lookup(i.key); ok {
			return value, nil
		}
	}
	return i.value, nil
}

func (i *countingImpl) SupportsPopulation() bool {
	return i.supports
}

// valueImpl has no identity: it is a plain struct passed by value.
type valueImpl struct {
	value any
}

func (v valueImpl) Get(any, Mapping) (any, error) {
	return v.value, nil
}

func (v valueImpl) SupportsPopulation() bool {
	return true
}

// fakeSite is a call site with counters and injectable failures.
type fakeSite struct {
	key       any
	keyErr    error
	impl      Impl
	implErr   error
	supErr    error
	noSlot    bool
	slot      *Getter
	offered   *Getter
	supReads  atomic.Int64
	implReads atomic.Int64
}

func (s *fakeSite) Key() (any, error) {
	return s.key, s.keyErr
}

func (s *fakeSite) Impl() (Impl, error) {
	s.implReads.Add(1)
	return s.impl, s.implErr
}

func (s *fakeSite) SupportsPopulation() (bool, error) {
	s.supReads.Add(1)
	if s.supErr != nil {
		return false, s.supErr
	}
	if reporter, ok := s.impl.(PopulationReporter); ok {
		return reporter.SupportsPopulation(), nil
	}
	return false, nil
}

func (s *fakeSite) GetterCache() *Getter {
	return s.slot
}

func (s *fakeSite) AttachGetterCache(g *Getter) (*Getter, error) {
	s.offered = g
	if s.noSlot {
		return nil, ErrSlotReadOnly
	}
	if s.slot == nil {
		s.slot = g
	}
	return s.slot, nil
}

func newTestGetter(t interface{ Fatalf(string, ...any) }, globals Globals, opts ...Option) *Getter {
	g, err := New(globals, opts...)
	if err != nil {
		t.Fatalf("new getter: %v", err)
	}
	return g
}
