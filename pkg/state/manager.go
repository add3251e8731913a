package state

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	instrument "github.com/goliatone/go-instrument"
)

// Manager tracks instances and resolves their dict and state. It implements
// instrument.Globals.
//
// Entities embedding Tracked keep their dict and state on themselves. Any
// other pointer can be tracked too; its dict and state then live in side
// tables owned by the Manager, so the dict is never the entity's own storage.
type Manager struct {
	store Store

	mu       sync.RWMutex
	defaults map[instrument.Class]Row
	dicts    map[any]*instrument.Dict
	states   map[any]*InstanceState
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDefaults registers the column defaults overlaid under loaded rows of
// class.
func WithDefaults(class instrument.Class, defaults Row) ManagerOption {
	return func(m *Manager) {
		m.setDefaults(class, defaults)
	}
}

// NewManager constructs a Manager. store may be nil for transient-only use.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		defaults: map[instrument.Class]Row{},
		dicts:    map[any]*instrument.Dict{},
		states:   map[any]*InstanceState{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

func (m *Manager) setDefaults(class instrument.Class, defaults Row) {
	if class == nil {
		return
	}
	if class.Kind() == reflect.Pointer {
		class = class.Elem()
	}
	m.mu.Lock()
	m.defaults[class] = defaults
	m.mu.Unlock()
}

// Track registers instance under ref. An empty ref.Table defaults to the
// lower-cased class name; an empty ref.ID tracks a transient instance.
func (m *Manager) Track(instance any, ref Ref) (*InstanceState, error) {
	class, err := trackableClass(instance)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(ref.Table) == "" {
		ref.Table = strings.ToLower(class.Name())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	state := newInstanceState(ref, class, m.store, m.defaults[class])
	if entity, ok := instance.(trackedEntity); ok {
		entity.attachState(state)
		return state, nil
	}
	m.states[instance] = state
	if _, ok := m.dicts[instance]; !ok {
		m.dicts[instance] = &instrument.Dict{}
	}
	return state, nil
}

// Discard forgets instance. Entities embedding Tracked keep their dict.
func (m *Manager) Discard(instance any) {
	if !isPointer(instance) {
		return
	}
	if entity, ok := instance.(trackedEntity); ok {
		entity.attachState(nil)
		return
	}
	m.mu.Lock()
	delete(m.states, instance)
	delete(m.dicts, instance)
	m.mu.Unlock()
}

// InstanceDict implements instrument.Globals.
func (m *Manager) InstanceDict(instance any) (instrument.Mapping, error) {
	dict, err := m.dict(instance)
	if err != nil {
		return nil, err
	}
	return dict, nil
}

// InstanceState implements instrument.Globals.
func (m *Manager) InstanceState(instance any) (any, error) {
	return m.State(instance)
}

// State returns the typed state of instance.
func (m *Manager) State(instance any) (*InstanceState, error) {
	if !isPointer(instance) {
		return nil, fmt.Errorf("%w: %T is not a non-nil pointer", ErrUntracked, instance)
	}
	if entity, ok := instance.(trackedEntity); ok {
		if state := entity.TrackedState(); state != nil {
			return state, nil
		}
		return nil, fmt.Errorf("%w: %T", ErrUntracked, instance)
	}
	m.mu.RLock()
	state, ok := m.states[instance]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUntracked, instance)
	}
	return state, nil
}

// Refresh loads the stored row into the instance dict, replacing loaded
// values.
func (m *Manager) Refresh(ctx context.Context, instance any) error {
	state, err := m.State(instance)
	if err != nil {
		return err
	}
	dict, err := m.dict(instance)
	if err != nil {
		return err
	}
	state.Expire()
	row, err := state.Row(ctx)
	if err != nil {
		return err
	}
	for key, value := range row {
		dict.Store(key, value)
	}
	return nil
}

// Expire drops keys from the instance dict and marks them stale so the next
// read loads them again. With no keys every value is dropped.
func (m *Manager) Expire(instance any, keys ...string) error {
	state, err := m.State(instance)
	if err != nil {
		return err
	}
	dict, err := m.dict(instance)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		for _, key := range dict.Keys() {
			dict.Delete(key)
		}
	}
	for _, key := range keys {
		dict.Delete(key)
	}
	state.Expire(keys...)
	return nil
}

// Flush saves the instance dict overlaid on the loaded row.
func (m *Manager) Flush(ctx context.Context, instance any) error {
	state, err := m.State(instance)
	if err != nil {
		return err
	}
	dict, err := m.dict(instance)
	if err != nil {
		return err
	}
	row, err := state.Row(ctx)
	if err != nil {
		return err
	}
	if row == nil {
		row = Row{}
	}
	for key, value := range dict.Snapshot() {
		row[key] = value
	}
	return state.save(ctx, row)
}

func (m *Manager) dict(instance any) (*instrument.Dict, error) {
	if !isPointer(instance) {
		return nil, fmt.Errorf("%w: %T is not a non-nil pointer", ErrUntracked, instance)
	}
	if entity, ok := instance.(trackedEntity); ok {
		return entity.trackedDict(), nil
	}
	m.mu.RLock()
	dict, ok := m.dicts[instance]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUntracked, instance)
	}
	return dict, nil
}

func trackableClass(instance any) (instrument.Class, error) {
	if !isPointer(instance) {
		return nil, fmt.Errorf("%w: %T is not a non-nil pointer", ErrUntracked, instance)
	}
	return reflect.TypeOf(instance).Elem(), nil
}

func isPointer(instance any) bool {
	value := reflect.ValueOf(instance)
	return value.Kind() == reflect.Pointer && !value.IsNil()
}
