// Package activity fans accessor lifecycle events out to hooks.
//
// Getters emit an event only on state transitions, never per call:
//
//   - accessor.cache.hot: a call site validated its mapping identity.
//   - accessor.cache.invalidated: a hot cache saw a different mapping or a
//     missing key on the fast path.
//   - accessor.capability.changed: the impl behind a call site changed.
//   - accessor.slot.degraded: a call site refused its private Getter.
//
// Hooks returning errors never affect attribute reads; the Getter discards
// emission errors.
package activity
