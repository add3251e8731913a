package instrument

import (
	"context"
	"fmt"

	"github.com/goliatone/go-instrument/pkg/activity"
)

const (
	verbCacheHot         = activity.VerbCacheHot
	verbCacheInvalidated = activity.VerbCacheInvalidated
)

// WithActivityHooks attaches activity hooks notified on cache transitions.
// Nil entries are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	compact := hooks.Compact()
	return func(cfg *getterConfig) {
		cfg.hooks = compact
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *getterConfig) {
		cfg.channel = channel
	}
}

// WithActivityErrorHandler receives the joined error of hooks that failed to
// accept an event. Without one, hook failures are dropped and the read that
// triggered the event proceeds unchanged.
func WithActivityErrorHandler(fn func(activity.Event, error)) Option {
	return func(cfg *getterConfig) {
		cfg.onHookError = fn
	}
}

// ActivityHooks returns a cloned slice of the configured hooks.
func (g *Getter) ActivityHooks() activity.Hooks {
	if g == nil {
		return nil
	}
	return g.cfg.hooks.Compact()
}

func (g *Getter) emit(event activity.Event) {
	if !g.emitter.Enabled() {
		return
	}
	_ = g.emitter.Emit(context.Background(), event)
}

func buildCacheEvent(verb, name string, key any, reason string) activity.Event {
	input := activity.AccessorEventInput{Name: name, Key: key, Reason: reason}
	if verb == verbCacheHot {
		return activity.BuildCacheHotEvent(input)
	}
	return activity.BuildCacheInvalidatedEvent(input)
}

func buildCapabilityEvent(name string, key any, before, after bool) activity.Event {
	return activity.BuildCapabilityChangedEvent(activity.AccessorEventInput{Name: name, Key: key}, before, after)
}

func buildDegradedEvent(name string, site CallSite) activity.Event {
	input := activity.AccessorEventInput{Name: name, Reason: "slot_unavailable"}
	if stringer, ok := site.(fmt.Stringer); ok {
		input.CallSite = stringer.String()
	}
	return activity.BuildSlotDegradedEvent(input)
}
