package model

import (
	"encoding/json"
)

// Optional carries a patch value together with the information whether the
// field was sent at all. A present field with a nil Value clears the column.
//
// The zero value is "not present", so that a decoded JSON object only marks
// the keys it actually contains.
type Optional[T any] struct {
	Present bool
	Value   *T
}

// Some returns a present Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{
		Present: true,
		Value:   &v,
	}
}

// Null returns a present Optional without a value
func Null[T any]() Optional[T] {
	return Optional[T]{Present: true}
}

// UnmarshalJSON implements the json.Unmarshaler interface. It is only called
// for keys present in the document.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// MarshalJSON implements the json.Marshaler interface
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// assignment returns the column value for a gorm map update; nil means NULL.
func (o Optional[T]) assignment() any {
	if o.Value == nil {
		return nil
	}
	return *o.Value
}

// assign adds the optional to the assignment map if it is present
func (o Optional[T]) assign(m map[string]any, column string) {
	if o.Present {
		m[column] = o.assignment()
	}
}
