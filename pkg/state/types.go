package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrETagMismatch = errors.New("state: etag mismatch")
	ErrUntracked    = errors.New("state: instance is not tracked")
	ErrInvalidRef   = errors.New("state: invalid ref")
)

// Row is the persisted column set of one instance.
type Row = map[string]any

// Ref identifies one persisted row.
type Ref struct {
	Table string
	ID    string
}

// Meta is storage-owned metadata used for concurrency control.
type Meta struct {
	ETag      string            `json:"etag,omitempty"`
	UpdatedAt time.Time         `json:"updated_at,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Store loads and saves single rows.
type Store interface {
	Load(ctx context.Context, ref Ref) (row Row, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, row Row, meta Meta) (Meta, error)
}

// Identifier returns the canonical storage key "table/id".
func (r Ref) Identifier() (string, error) {
	table := strings.TrimSpace(r.Table)
	id := strings.TrimSpace(r.ID)
	if table == "" {
		return "", fmt.Errorf("%w: table is required", ErrInvalidRef)
	}
	if id == "" {
		return "", fmt.Errorf("%w: id is required for table %q", ErrInvalidRef, table)
	}
	return table + "/" + id, nil
}

func (r Ref) String() string {
	if r.ID == "" {
		return r.Table
	}
	return r.Table + "/" + r.ID
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
