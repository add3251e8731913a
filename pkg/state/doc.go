// Package state tracks instrumented instances for the go-instrument accessor.
//
// Responsibilities:
//   - Store only loads and saves a single Row for a single Ref.
//   - InstanceState is what impls receive as their state argument. It loads
//     the stored row lazily, overlays it on class defaults through
//     layering.Merge and implements instrument.Loader.
//   - Manager implements instrument.Globals: InstanceDict returns the
//     entity's own dict for types embedding Tracked, or a side-table dict for
//     any other tracked pointer.
//
// Data flow:
//
//	Getter -> Manager.InstanceDict / InstanceState -> Impl.Get
//	       -> InstanceState.LoadAttribute -> Store.Load -> layering.Merge
//
// Only entities embedding Tracked are served from the Getter fast path; side
// table dicts are never the entity's own storage, so Getters route them
// through the generic path every time.
//
// Deterministic keys:
//
//	Ref.Identifier() returns "table/id". MemoryStore uses it as its key and
//	issues a uuid ETag per save for optimistic concurrency.
package state
