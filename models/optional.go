package models

import "encoding/json"

// Opt carries a PATCH field that distinguishes "absent" from "explicit null".
// Set is false when the key was missing from the request body; Value is nil
// when the key was present with a null value.
type Opt[T any] struct {
	Set   bool
	Value *T
}

func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Null reports whether the field was present with an explicit null.
func (o Opt[T]) Null() bool {
	return o.Set && o.Value == nil
}

// OptOf builds a present, non-null value.
func OptOf[T any](v T) Opt[T] {
	return Opt[T]{Set: true, Value: &v}
}

// OptNull is a present, explicit-null value.
func OptNull[T any]() Opt[T] {
	return Opt[T]{Set: true}
}
