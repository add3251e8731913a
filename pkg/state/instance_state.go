package state

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	instrument "github.com/goliatone/go-instrument"
	"github.com/goliatone/go-instrument/layering"
)

// InstanceState is the per-instance bookkeeping handed to impls. It loads the
// persisted row lazily and overlays it onto the class defaults, so it
// implements instrument.Loader.
type InstanceState struct {
	id       uuid.UUID
	ref      Ref
	class    instrument.Class
	store    Store
	defaults Row

	mu      sync.Mutex
	row     Row
	meta    Meta
	loaded  bool
	expired map[string]struct{}
	loads   int
}

func newInstanceState(ref Ref, class instrument.Class, store Store, defaults Row) *InstanceState {
	return &InstanceState{
		id:       uuid.New(),
		ref:      ref,
		class:    class,
		store:    store,
		defaults: defaults,
		expired:  map[string]struct{}{},
	}
}

// ID is the session-local identity of the instance.
func (s *InstanceState) ID() uuid.UUID {
	return s.id
}

// Ref returns the storage reference. Transient instances have an empty ID.
func (s *InstanceState) Ref() Ref {
	return s.ref
}

// Class returns the instrumented class of the instance.
func (s *InstanceState) Class() instrument.Class {
	return s.class
}

// Persistent reports whether the instance is backed by a stored row.
func (s *InstanceState) Persistent() bool {
	return s.store != nil && s.ref.ID != ""
}

// Meta returns the metadata of the last loaded or saved row.
func (s *InstanceState) Meta() Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMeta(s.meta)
}

// Loads counts the store round trips performed for this instance.
func (s *InstanceState) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// Expire marks keys stale; with no keys the whole row is reloaded on the
// next access.
func (s *InstanceState) Expire(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(keys) == 0 {
		s.loaded = false
		s.row = nil
		return
	}
	for _, key := range keys {
		s.expired[key] = struct{}{}
	}
}

// Expired lists the keys marked stale, sorted.
func (s *InstanceState) Expired() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.expired))
	for key := range s.expired {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// LoadAttribute implements instrument.Loader.
func (s *InstanceState) LoadAttribute(key any) (any, bool, error) {
	name, ok := key.(string)
	if !ok {
		return nil, false, nil
	}
	row, err := s.loadedRow(context.Background(), name)
	if err != nil {
		return nil, false, err
	}
	value, ok := row[name]
	return value, ok, nil
}

// Row returns the loaded row merged over the defaults.
func (s *InstanceState) Row(ctx context.Context) (Row, error) {
	return s.loadedRow(ctx, "")
}

func (s *InstanceState) loadedRow(ctx context.Context, key string) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, stale := s.expired[key]
	if s.Persistent() && (!s.loaded || stale) {
		row, meta, ok, err := s.store.Load(ctx, s.ref)
		if err != nil {
			return nil, fmt.Errorf("state: load %s: %w", s.ref, err)
		}
		s.loads++
		if ok {
			s.row = row
			s.meta = meta
		}
		s.loaded = true
		s.expired = map[string]struct{}{}
	}
	return layering.Merge(s.row, s.defaults), nil
}

// save persists row and records the returned metadata. A row equal to the
// one already stored is not written again.
func (s *InstanceState) save(ctx context.Context, row Row) error {
	if s.store == nil {
		return fmt.Errorf("state: %s has no store", s.ref)
	}
	if _, err := s.ref.Identifier(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.meta.ETag != "" && len(layering.Changed(s.row, row)) == 0 {
		return nil
	}
	meta, err := s.store.Save(ctx, s.ref, row, Meta{ETag: s.meta.ETag})
	if err != nil {
		return fmt.Errorf("state: save %s: %w", s.ref, err)
	}
	s.row = layering.Clone(row)
	s.meta = meta
	s.loaded = true
	s.expired = map[string]struct{}{}
	return nil
}
