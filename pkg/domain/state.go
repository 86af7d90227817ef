package domain

import (
	"maps"
	"reflect"
	"slices"
)

// Fields is the shared state of a trajectory: field name to value.
// A key holding nil was written without a value; an absent key was never written or was cleared.
type Fields map[string]any

// NewFields returns an empty field map.
func NewFields() Fields {
	return make(Fields)
}

// Has reports whether the key is present, even if its value is nil.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Clear deletes every listed key and returns how many were actually present.
func (f Fields) Clear(keys ...string) int {
	n := 0
	for _, k := range keys {
		if _, ok := f[k]; ok {
			delete(f, k)
			n++
		}
	}
	return n
}

// Keys returns the present keys in sorted order.
func (f Fields) Keys() []string {
	return slices.Sorted(maps.Keys(f))
}

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	if f == nil {
		return NewFields()
	}
	return maps.Clone(f)
}

// PendingSlots returns the slots awaiting clarification in sorted order.
// It accepts both the in-memory []string shape and the []any shape produced by JSON decoding.
func (f Fields) PendingSlots() []string {
	var out []string
	switch v := f[PendingSlotsKey].(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Present reports whether a value counts as supplied: not nil and not an empty string,
// slice or map of any element type.
func Present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer:
		return !rv.IsNil() && Present(rv.Elem().Interface())
	}
	return true
}
