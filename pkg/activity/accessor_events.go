package activity

import (
	"fmt"
	"strings"
	"time"
)

const (
	// VerbCacheHot is emitted when a call site Getter validates its mapping
	// identity and enables the fast path.
	VerbCacheHot = "accessor.cache.hot"
	// VerbCacheInvalidated is emitted when a hot cache is dropped.
	VerbCacheInvalidated = "accessor.cache.invalidated"
	// VerbCapabilityChanged is emitted when the impl behind a call site
	// changed and its population flag was read again.
	VerbCapabilityChanged = "accessor.capability.changed"
	// VerbSlotDegraded is emitted when a call site refused a cache Getter.
	VerbSlotDegraded = "accessor.slot.degraded"
)

// Metadata keys set by BuildCapabilityChangedEvent.
const (
	MetaSupportsBefore = "supports_population_before"
	MetaSupports       = "supports_population"
)

// AccessorEventInput carries the fields shared by accessor events. Key is
// formatted with fmt.Sprint.
type AccessorEventInput struct {
	Name       string
	Key        any
	CallSite   string
	Reason     string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

func BuildCacheHotEvent(input AccessorEventInput) Event {
	return input.event(VerbCacheHot)
}

func BuildCacheInvalidatedEvent(input AccessorEventInput) Event {
	return input.event(VerbCacheInvalidated)
}

// BuildCapabilityChangedEvent records the population flag before and after
// the refresh under MetaSupportsBefore and MetaSupports.
func BuildCapabilityChangedEvent(input AccessorEventInput, before, after bool) Event {
	event := input.event(VerbCapabilityChanged)
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}
	event.Metadata[MetaSupportsBefore] = before
	event.Metadata[MetaSupports] = after
	return event
}

func BuildSlotDegradedEvent(input AccessorEventInput) Event {
	return input.event(VerbSlotDegraded)
}

func (in AccessorEventInput) event(verb string) Event {
	var key string
	if in.Key != nil {
		key = strings.TrimSpace(fmt.Sprint(in.Key))
	}
	return Event{
		Verb:       verb,
		Accessor:   strings.TrimSpace(in.Name),
		Key:        key,
		CallSite:   strings.TrimSpace(in.CallSite),
		Reason:     strings.TrimSpace(in.Reason),
		Channel:    strings.TrimSpace(in.Channel),
		Metadata:   cloneMap(in.Metadata),
		OccurredAt: in.OccurredAt,
	}
}
