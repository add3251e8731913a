package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-instrument/pkg/state"
)

func TestRefIdentifier(t *testing.T) {
	id, err := state.Ref{Table: "user", ID: "42"}.Identifier()
	if err != nil {
		t.Fatalf("identifier: %v", err)
	}
	if id != "user/42" {
		t.Fatalf("expected user/42, got %q", id)
	}

	if _, err := (state.Ref{Table: "user"}).Identifier(); !errors.Is(err, state.ErrInvalidRef) {
		t.Fatalf("expected ErrInvalidRef for missing id, got %v", err)
	}
	if _, err := (state.Ref{ID: "42"}).Identifier(); !errors.Is(err, state.ErrInvalidRef) {
		t.Fatalf("expected ErrInvalidRef for missing table, got %v", err)
	}
}

func TestMemoryStoreRoundTripClonesRows(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	ref := state.Ref{Table: "user", ID: "1"}

	row := state.Row{"name": "ada", "tags": []string{"admin"}}
	meta, err := store.Save(ctx, ref, row, state.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if meta.ETag == "" {
		t.Fatalf("expected an etag to be issued")
	}
	if meta.UpdatedAt.IsZero() {
		t.Fatalf("expected updated_at to be stamped")
	}

	row["name"] = "mutated"

	loaded, loadedMeta, ok, err := store.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if loaded["name"] != "ada" {
		t.Fatalf("stored row must not alias the caller's map, got %v", loaded["name"])
	}
	if loadedMeta.ETag != meta.ETag {
		t.Fatalf("expected etag %q, got %q", meta.ETag, loadedMeta.ETag)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one record, got %d", store.Len())
	}
}

func TestMemoryStoreLoadMissing(t *testing.T) {
	_, _, ok, err := state.NewMemoryStore().Load(context.Background(), state.Ref{Table: "user", ID: "nope"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatalf("expected missing row")
	}
}

func TestMemoryStoreRejectsStaleETag(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	ref := state.Ref{Table: "user", ID: "1"}

	first, err := store.Save(ctx, ref, state.Row{"name": "ada"}, state.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := store.Save(ctx, ref, state.Row{"name": "grace"}, state.Meta{ETag: first.ETag})
	if err != nil {
		t.Fatalf("save with current etag: %v", err)
	}
	if second.ETag == first.ETag {
		t.Fatalf("expected a new etag per save")
	}

	_, err = store.Save(ctx, ref, state.Row{"name": "linus"}, state.Meta{ETag: first.ETag})
	if !errors.Is(err, state.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}
}
