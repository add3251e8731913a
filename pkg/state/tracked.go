package state

import (
	"sync/atomic"

	instrument "github.com/goliatone/go-instrument"
)

// Tracked is embedded by entities that own their attribute storage. The
// embedded dict is what Manager.InstanceDict returns for such entities, which
// lets Getters serve them from the fast path.
//
// A Tracked value must not be copied after first use.
type Tracked struct {
	dict  instrument.Dict
	state atomic.Pointer[InstanceState]
}

// BasicDict implements instrument.BasicDictProvider.
func (t *Tracked) BasicDict() instrument.Mapping {
	return &t.dict
}

// TrackedState returns the state attached by Manager.Track, or nil.
func (t *Tracked) TrackedState() *InstanceState {
	return t.state.Load()
}

func (t *Tracked) attachState(s *InstanceState) {
	t.state.Store(s)
}

func (t *Tracked) trackedDict() *instrument.Dict {
	return &t.dict
}

// trackedEntity matches any type embedding *Tracked or Tracked by pointer.
type trackedEntity interface {
	instrument.BasicDictProvider
	TrackedState() *InstanceState
	attachState(*InstanceState)
	trackedDict() *instrument.Dict
}
