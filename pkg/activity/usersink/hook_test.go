package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-instrument/pkg/activity"
	"github.com/goliatone/go-instrument/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildCapabilityChangedEvent(activity.AccessorEventInput{
		Name:       "__get__",
		Key:        "email",
		CallSite:   "User.email",
		Channel:    "orm",
		OccurredAt: now,
	}, true, false)
	event.ActorID = actorID.String()
	event.TenantID = tenantID.String()

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.UserID != actorID {
		t.Fatalf("expected actor %s on actor and user, got %s/%s", actorID, record.ActorID, record.UserID)
	}
	if record.TenantID != tenantID {
		t.Fatalf("expected tenant %s got %s", tenantID, record.TenantID)
	}
	if record.Verb != activity.VerbCapabilityChanged || record.ObjectType != "accessor" || record.ObjectID != "User.email" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "orm" {
		t.Fatalf("expected channel orm got %q", record.Channel)
	}
	if record.OccurredAt != now {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["key"] != "email" || record.Data["name"] != "__get__" || record.Data["call_site"] != "User.email" {
		t.Fatalf("expected accessor fields in data, got %+v", record.Data)
	}
	if record.Data[activity.MetaSupportsBefore] != true {
		t.Fatalf("expected metadata passthrough, got %+v", record.Data)
	}
}

func TestHookNotifyMalformedIDsBecomeNil(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	if err := hook.Notify(context.Background(), activity.Event{Verb: activity.VerbCacheHot, Key: "1", ActorID: "not-a-uuid"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sink.records[0].ActorID != uuid.Nil || sink.records[0].TenantID != uuid.Nil {
		t.Fatalf("expected nil ids, got %+v", sink.records[0])
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}

func TestHookNotifySkipsMissingVerbAndSink(t *testing.T) {
	sink := &recordingSink{}
	if err := (usersink.Hook{Sink: sink}).Notify(context.Background(), activity.Event{Key: "x"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty verb, got %d", len(sink.records))
	}
	if err := (usersink.Hook{}).Notify(context.Background(), activity.Event{Verb: activity.VerbCacheHot}); err != nil {
		t.Fatalf("nil sink should be a no-op, got %v", err)
	}
}

func TestHookNotifyReturnsSinkError(t *testing.T) {
	boom := errors.New("sink down")
	hook := usersink.Hook{Sink: &recordingSink{err: boom}}
	if err := hook.Notify(context.Background(), activity.Event{Verb: activity.VerbCacheHot}); !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestHookNotifyFiltersVerbs(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Verbs: []string{activity.VerbSlotDegraded}}

	if err := hook.Notify(context.Background(), activity.BuildCacheHotEvent(activity.AccessorEventInput{Key: "email"})); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected filtered verb to be dropped, got %d records", len(sink.records))
	}

	if err := hook.Notify(context.Background(), activity.BuildSlotDegradedEvent(activity.AccessorEventInput{Key: "email"})); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 || sink.records[0].ObjectID != "email" {
		t.Fatalf("expected degraded event forwarded, got %+v", sink.records)
	}
}
