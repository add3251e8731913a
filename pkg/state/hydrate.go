package state

import (
	"context"
	"fmt"

	"github.com/goliatone/go-instrument/internal/hydrate"
)

// Validator is implemented by snapshot types that check themselves after
// decoding.
type Validator interface {
	Validate() error
}

// Decode converts row into T through its json tags. Unknown columns are
// ignored. A T implementing Validator (on its pointer) is validated.
func Decode[T any](table string, row Row) (T, error) {
	decoder := hydrate.New[T](
		hydrate.Validate[T](func(_ hydrate.Source, value *T) error {
			if validator, ok := any(value).(Validator); ok {
				return validator.Validate()
			}
			return nil
		}),
	)
	if row == nil {
		row = Row{}
	}
	return decoder.Decode(hydrate.Source{Origin: "state", Kind: table}, row)
}

// Snapshot decodes the current view of instance: the loaded row with the
// instance dict applied on top.
func Snapshot[T any](ctx context.Context, m *Manager, instance any) (T, error) {
	var zero T
	if m == nil {
		return zero, fmt.Errorf("state: manager is required")
	}
	state, err := m.State(instance)
	if err != nil {
		return zero, err
	}
	dict, err := m.dict(instance)
	if err != nil {
		return zero, err
	}
	row, err := state.Row(ctx)
	if err != nil {
		return zero, err
	}
	if row == nil {
		row = Row{}
	}
	for key, value := range dict.Snapshot() {
		row[key] = value
	}
	return Decode[T](state.Ref().Table, row)
}
