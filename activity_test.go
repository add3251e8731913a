package instrument

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/goliatone/go-instrument/pkg/activity"
)

func TestActivityHooksObserveCacheTransitions(t *testing.T) {
	capture := &activity.CaptureHook{}
	g := newTestGetter(t, &countingGlobals{}, WithActivityHooks(activity.Hooks{capture, nil}), WithActivityChannel("orm"))
	if len(g.ActivityHooks()) != 1 {
		t.Fatalf("expected nil hooks to be dropped, got %d", len(g.ActivityHooks()))
	}

	populating := &countingImpl{key: "x", supports: true, value: "fallback"}
	attr := NewAttribute("x", reflect.TypeOf(entity{}), populating)
	a := &entity{own: NewDict(map[string]any{"x": 1})}

	call := func() {
		t.Helper()
		if _, err := g.Call(attr, a, nil); err != nil {
			t.Fatalf("call: %v", err)
		}
	}

	call() // population hit, cache goes hot
	call() // fast path, no event
	a.own.Delete("x")
	call() // fast path miss
	attr.SetImpl(&countingImpl{key: "x", supports: false, value: "computed"})
	call() // capability refresh

	want := []string{
		activity.VerbCacheHot,
		activity.VerbCacheInvalidated,
		activity.VerbCapabilityChanged,
	}
	if len(capture.Events) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(capture.Events), capture.Events)
	}
	for i, verb := range want {
		event := capture.Events[i]
		if event.Verb != verb {
			t.Fatalf("event %d: expected verb %q, got %q", i, verb, event.Verb)
		}
		if event.Channel != "orm" {
			t.Fatalf("event %d: expected channel orm, got %q", i, event.Channel)
		}
		if event.ObjectID() != "x" {
			t.Fatalf("event %d: unexpected object %s", i, event.ObjectID())
		}
		if event.Accessor != DefaultName {
			t.Fatalf("event %d: expected getter name, got %q", i, event.Accessor)
		}
	}
	if reason := capture.Events[1].Reason; reason != "fast_path_miss" {
		t.Fatalf("expected fast_path_miss reason, got %q", reason)
	}
	capability := capture.Events[2].Metadata
	if capability[activity.MetaSupportsBefore] != true || capability[activity.MetaSupports] != false {
		t.Fatalf("unexpected capability metadata %+v", capability)
	}
}

func TestActivityHooksObserveDegradedSlots(t *testing.T) {
	capture := &activity.CaptureHook{}
	g := newTestGetter(t, &countingGlobals{}, WithActivityHooks(activity.Hooks{capture}))
	attr := NewAttribute("x", reflect.TypeOf(entity{}), &countingImpl{key: "x", supports: true}, WithReadOnlySlot())
	a := &entity{own: NewDict(map[string]any{"x": 1})}

	if _, err := g.Call(attr, a, nil); err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event, got %+v", capture.Events)
	}
	event := capture.Events[0]
	if event.Verb != activity.VerbSlotDegraded {
		t.Fatalf("expected degraded verb, got %q", event.Verb)
	}
	if event.ObjectID() != "entity.x" {
		t.Fatalf("expected call site as object id, got %q", event.ObjectID())
	}
	if event.Channel != activity.DefaultChannel {
		t.Fatalf("expected default channel, got %q", event.Channel)
	}
}

func TestActivityHooksDisabledByDefault(t *testing.T) {
	g := newTestGetter(t, &countingGlobals{})
	if g.ActivityHooks() != nil {
		t.Fatalf("expected no hooks")
	}
	attr := NewAttribute("x", reflect.TypeOf(entity{}), &countingImpl{key: "x", supports: true})
	a := &entity{own: NewDict(map[string]any{"x": 1})}
	if _, err := g.Call(attr, a, nil); err != nil {
		t.Fatalf("call: %v", err)
	}
}

func TestActivityErrorHandlerReceivesHookFailures(t *testing.T) {
	sinkErr := errors.New("sink offline")
	failing := activity.HookFunc(func(context.Context, activity.Event) error {
		return sinkErr
	})
	var (
		failed []activity.Event
		causes []error
	)
	g := newTestGetter(t, &countingGlobals{},
		WithActivityHooks(activity.Hooks{failing}),
		WithActivityErrorHandler(func(event activity.Event, err error) {
			failed = append(failed, event)
			causes = append(causes, err)
		}),
	)
	attr := NewAttribute("x", reflect.TypeOf(entity{}), &countingImpl{key: "x", supports: true})
	a := &entity{own: NewDict(map[string]any{"x": 1})}

	value, err := g.Call(attr, a, nil)
	if err != nil {
		t.Fatalf("hook failures must not fail the read: %v", err)
	}
	if value != 1 {
		t.Fatalf("expected 1, got %v", value)
	}
	if len(failed) != 1 {
		t.Fatalf("expected one reported failure, got %d", len(failed))
	}
	if failed[0].Verb != activity.VerbCacheHot {
		t.Fatalf("expected the cache hot event, got %q", failed[0].Verb)
	}
	if !errors.Is(causes[0], sinkErr) {
		t.Fatalf("expected the sink error, got %v", causes[0])
	}
}
