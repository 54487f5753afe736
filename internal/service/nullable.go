package service

import (
	"bytes"
	"encoding/json"
)

// Nullable distinguishes a JSON field that was absent from one that carried
// an explicit null. Merge-patch treats the two differently: absent leaves the
// stored value untouched, explicit null clears it.
type Nullable[T any] struct {
	Set   bool // field was present in the payload
	Valid bool // field carried a non-null value
	Value T
}

// NullableOf wraps a concrete value, as if the field had been supplied.
func NullableOf[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Valid: true, Value: v}
}

// UnmarshalJSON runs only for fields present in the payload, so Set is true
// for both concrete values and explicit nulls.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Ptr returns a pointer to a copy of the value, or nil when the field was
// null or absent.
func (n Nullable[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}
