package models

import (
	"bytes"
	"encoding/json"
)

// Optional marks whether a field was present in a partial update payload.
// A JSON null counts as present, so nullable columns can be cleared; Null
// records it so non-nullable columns can refuse it.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	o.Null = bytes.Equal(bytes.TrimSpace(b), []byte("null"))
	return json.Unmarshal(b, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
