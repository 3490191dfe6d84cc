package domain

import "encoding/json"

// Field distinguishes "absent from the payload" from "present but null" so
// partial patches only touch what the client actually sent.
type Field[T any] struct {
	Set   bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	return json.Unmarshal(data, &f.Value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Value)
}

// SetField builds an already-populated cell, for patches assembled in code.
func SetField[T any](value T) Field[T] {
	return Field[T]{Set: true, Value: value}
}
