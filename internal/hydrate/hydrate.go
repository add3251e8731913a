// Package hydrate turns loosely typed payloads (persisted reductions, stored
// rows) into typed values. Decoding goes through the json tags of the target
// type; optional normalize and validate steps run around it.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// Source names the payload in errors, e.g. {"state", "account"}.
type Source struct {
	Origin string
	Kind   string
}

func (s Source) String() string {
	if s.Origin == "" {
		return s.Kind
	}
	return s.Origin + "/" + s.Kind
}

// Decoder decodes payloads into T. It is immutable once built and safe for
// concurrent use.
type Decoder[T any] struct {
	strict     bool
	useNumber  bool
	normalizer []func(Source, map[string]any) error
	validators []func(Source, *T) error
}

// Option configures a Decoder.
type Option[T any] func(*Decoder[T])

// Strict rejects payload keys that match no field of T.
func Strict[T any]() Option[T] {
	return func(d *Decoder[T]) { d.strict = true }
}

// UseNumber decodes numbers held in interface fields as json.Number.
func UseNumber[T any]() Option[T] {
	return func(d *Decoder[T]) { d.useNumber = true }
}

// Normalize edits a private copy of the payload before decoding.
func Normalize[T any](fn func(Source, map[string]any) error) Option[T] {
	return func(d *Decoder[T]) {
		if fn != nil {
			d.normalizer = append(d.normalizer, fn)
		}
	}
}

// Validate checks the decoded value. Validators run in registration order and
// the first failure is returned.
func Validate[T any](fn func(Source, *T) error) Option[T] {
	return func(d *Decoder[T]) {
		if fn != nil {
			d.validators = append(d.validators, fn)
		}
	}
}

// New builds a Decoder.
func New[T any](opts ...Option[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts payload. The caller's map is never modified.
func (d *Decoder[T]) Decode(src Source, payload map[string]any) (T, error) {
	var zero T
	if payload == nil {
		return zero, fmt.Errorf("hydrate: %s: payload is nil", src)
	}
	if len(d.normalizer) > 0 {
		payload = maps.Clone(payload)
		for _, fn := range d.normalizer {
			if err := fn(src, payload); err != nil {
				return zero, fmt.Errorf("hydrate: %s: normalize: %w", src, err)
			}
		}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return zero, fmt.Errorf("hydrate: %s: encode payload: %w", src, err)
	}
	return d.DecodeJSON(src, raw)
}

// DecodeJSON decodes an already encoded payload. Normalizers do not run.
func (d *Decoder[T]) DecodeJSON(src Source, raw []byte) (T, error) {
	var out T
	dec := json.NewDecoder(bytes.NewReader(raw))
	if d.strict {
		dec.DisallowUnknownFields()
	}
	if d.useNumber {
		dec.UseNumber()
	}
	if err := dec.Decode(&out); err != nil {
		var zero T
		return zero, fmt.Errorf("hydrate: %s: %w", src, err)
	}
	for _, fn := range d.validators {
		if err := fn(src, &out); err != nil {
			var zero T
			return zero, fmt.Errorf("hydrate: %s: %w", src, err)
		}
	}
	return out, nil
}
