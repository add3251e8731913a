// Package layering stacks attribute rows. A row is a map of column name to
// value; stronger layers win key by key and nested maps merge recursively.
package layering

import (
	"reflect"
	"sort"
)

// Merge overlays layers ordered from strongest to weakest into a new row.
// Nested map[string]any values are merged rather than replaced. The result
// never aliases an input; it is nil only when every layer is nil.
func Merge(layers ...map[string]any) map[string]any {
	var out map[string]any
	for i := len(layers) - 1; i >= 0; i-- {
		layer := layers[i]
		if layer == nil {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(layer))
		}
		for key, value := range layer {
			strong, strongIsRow := value.(map[string]any)
			weak, weakIsRow := out[key].(map[string]any)
			if strongIsRow && weakIsRow {
				out[key] = Merge(strong, weak)
				continue
			}
			out[key] = cloneAny(value)
		}
	}
	return out
}

// Clone deep copies row. Maps and slices are copied at every depth; other
// values, structs included, are copied by assignment.
func Clone(row map[string]any) map[string]any {
	if row == nil {
		return nil
	}
	out := make(map[string]any, len(row))
	for key, value := range row {
		out[key] = cloneAny(value)
	}
	return out
}

// Changed lists, sorted, the keys whose values differ between before and
// after, including keys present on one side only.
func Changed(before, after map[string]any) []string {
	var keys []string
	for key, value := range after {
		old, ok := before[key]
		if !ok || !reflect.DeepEqual(old, value) {
			keys = append(keys, key)
		}
	}
	for key := range before {
		if _, ok := after[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func cloneAny(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]any:
		return Clone(v)
	case []any:
		if v == nil {
			return v
		}
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneAny(item)
		}
		return out
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		return cloneValue(rv).Interface()
	default:
		return value
	}
}

func cloneValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneValue(v.Index(i)))
		}
		return out
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(cloneValue(v.Elem()))
		return out
	default:
		return v
	}
}
