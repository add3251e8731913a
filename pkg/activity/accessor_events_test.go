package activity

import (
	"context"
	"testing"
)

func TestBuildCacheHotEventUsesKeyAsObjectID(t *testing.T) {
	meta := map[string]any{"custom": "value"}
	event := BuildCacheHotEvent(AccessorEventInput{
		Name:     "__get__",
		Key:      "email",
		Metadata: meta,
	})

	if event.Verb != VerbCacheHot {
		t.Fatalf("expected verb %s got %s", VerbCacheHot, event.Verb)
	}
	if event.ObjectID() != "email" {
		t.Fatalf("unexpected object id %q", event.ObjectID())
	}
	data := event.Data()
	if data["key"] != "email" || data["name"] != "__get__" || data["custom"] != "value" {
		t.Fatalf("expected key, name and custom data, got %+v", data)
	}
	event.Metadata["custom"] = "changed"
	if meta["custom"] != "value" {
		t.Fatalf("expected input metadata untouched, got %+v", meta)
	}
}

func TestBuildCapabilityChangedEventRecordsFlags(t *testing.T) {
	event := BuildCapabilityChangedEvent(AccessorEventInput{Key: 7, CallSite: "User.age"}, true, false)

	if event.Verb != VerbCapabilityChanged {
		t.Fatalf("expected verb %s got %s", VerbCapabilityChanged, event.Verb)
	}
	if event.ObjectID() != "User.age" {
		t.Fatalf("expected call site object id, got %q", event.ObjectID())
	}
	if event.Metadata[MetaSupportsBefore] != true || event.Metadata[MetaSupports] != false {
		t.Fatalf("expected capability flags, got %+v", event.Metadata)
	}
	if event.Key != "7" {
		t.Fatalf("expected formatted key, got %q", event.Key)
	}
}

func TestBuildSlotDegradedEventFallsBackToObjectType(t *testing.T) {
	event := BuildSlotDegradedEvent(AccessorEventInput{Reason: " read-only "})
	if event.ObjectID() != ObjectType {
		t.Fatalf("expected object id fallback, got %q", event.ObjectID())
	}
	if event.Data()["reason"] != "read-only" {
		t.Fatalf("expected reason data, got %+v", event.Data())
	}
}

func TestAccessorEventsPassHookValidation(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}

	if err := hooks.Notify(context.Background(), BuildCacheInvalidatedEvent(AccessorEventInput{Key: "name", Reason: "identity_changed"})); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one captured event, got %d", len(capture.Events))
	}
	if capture.Events[0].OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be defaulted")
	}
}
