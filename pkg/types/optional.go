package types

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// Nullable distinguishes the three states of a PATCH field: absent (Valid is
// false), explicit null (Valid with a nil Value) and a concrete value.
type Nullable[T any] struct {
	Valid bool
	Value *T
}

// NullableUUID is the common case for optional foreign keys.
type NullableUUID = Nullable[uuid.UUID]

// Set returns a Nullable holding v.
func Set[T any](v T) Nullable[T] {
	return Nullable[T]{Valid: true, Value: &v}
}

// Null returns an explicit null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Valid: true}
}

// IsNull reports an explicit null.
func (n Nullable[T]) IsNull() bool {
	return n.Valid && n.Value == nil
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	n.Valid = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		n.Valid = false
		return err
	}
	n.Value = &v
	return nil
}
