package instrument

import (
	"fmt"
	"sort"
)

// Dict is the default instance storage. The zero value is ready to use. Dict
// is not safe for concurrent mutation; instance access is expected to be
// confined to one goroutine at a time.
type Dict struct {
	values map[any]any
}

// NewDict returns a Dict seeded with values.
func NewDict(values map[string]any) *Dict {
	d := &Dict{values: make(map[any]any, len(values))}
	for key, value := range values {
		d.values[key] = value
	}
	return d
}

// Lookup implements Mapping.
func (d *Dict) Lookup(key any) (any, bool) {
	if d == nil || d.values == nil {
		return nil, false
	}
	value, ok := d.values[key]
	return value, ok
}

// Store implements MutableMapping. Storing into a nil Dict is a no-op.
func (d *Dict) Store(key, value any) {
	if d == nil {
		return
	}
	if d.values == nil {
		d.values = make(map[any]any)
	}
	d.values[key] = value
}

// Delete implements MutableMapping.
func (d *Dict) Delete(key any) {
	if d == nil || d.values == nil {
		return
	}
	delete(d.values, key)
}

// Len returns the number of stored keys.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.values)
}

// Keys returns the stored keys formatted as strings, sorted.
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, 0, len(d.values))
	for key := range d.values {
		keys = append(keys, keyString(key))
	}
	sort.Strings(keys)
	return keys
}

// Snapshot copies the stored values into a string keyed map.
func (d *Dict) Snapshot() map[string]any {
	out := make(map[string]any)
	if d == nil {
		return out
	}
	for key, value := range d.values {
		out[keyString(key)] = value
	}
	return out
}

// Snapshotter is implemented by mappings that can export their contents.
type Snapshotter interface {
	Snapshot() map[string]any
}

func keyString(key any) string {
	if s, ok := key.(string); ok {
		return s
	}
	return fmt.Sprint(key)
}
