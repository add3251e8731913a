package activity

import (
	"strings"
	"time"
)

// ObjectType is the object type reported for every accessor event.
const ObjectType = "accessor"

// Event is one accessor lifecycle transition. Accessor is the name of the
// emitting Getter; CallSite is the descriptor label when one is known.
type Event struct {
	Verb       string
	Accessor   string
	Key        string
	CallSite   string
	Reason     string
	ActorID    string
	TenantID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ObjectID names the object the event is about: the call site, then the key,
// then the accessor name, then ObjectType.
func (e Event) ObjectID() string {
	for _, candidate := range []string{e.CallSite, e.Key, e.Accessor} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return candidate
		}
	}
	return ObjectType
}

// Data flattens the accessor fields into a copy of Metadata.
func (e Event) Data() map[string]any {
	data := cloneMap(e.Metadata)
	set := func(key, value string) {
		if value == "" {
			return
		}
		if data == nil {
			data = map[string]any{}
		}
		data[key] = value
	}
	set("name", e.Accessor)
	set("key", e.Key)
	set("call_site", e.CallSite)
	set("reason", e.Reason)
	return data
}

// Normalize trims identifiers, copies metadata and stamps OccurredAt when
// unset.
func Normalize(event Event) Event {
	out := event
	out.Verb = strings.TrimSpace(event.Verb)
	out.Accessor = strings.TrimSpace(event.Accessor)
	out.Key = strings.TrimSpace(event.Key)
	out.CallSite = strings.TrimSpace(event.CallSite)
	out.Reason = strings.TrimSpace(event.Reason)
	out.ActorID = strings.TrimSpace(event.ActorID)
	out.TenantID = strings.TrimSpace(event.TenantID)
	out.Channel = strings.TrimSpace(event.Channel)
	out.Metadata = cloneMap(event.Metadata)
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now()
	}
	return out
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
