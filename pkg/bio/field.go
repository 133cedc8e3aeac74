package bio

import "encoding/json"

type fieldState uint8

const (
	fieldUnset fieldState = iota
	fieldClear
	fieldSet
)

// Field is a tagged tri-state value used in partial updates:
//
//   - unset: the field was omitted from the input; preserve the stored value
//   - clear: the field was an explicit JSON null; erase the stored value
//   - set:   the field carries a replacement value
//
// The zero Field is unset, which is exactly what encoding/json leaves behind
// for fields absent from the input, so Update structs decode correctly
// without any presence bookkeeping.
type Field[T any] struct {
	state fieldState
	value T
}

// Set returns a Field carrying a replacement value.
func Set[T any](v T) Field[T] {
	return Field[T]{state: fieldSet, value: v}
}

// Clear returns a Field that erases the stored value.
func Clear[T any]() Field[T] {
	return Field[T]{state: fieldClear}
}

// IsSet reports whether the field carries a replacement value.
func (f Field[T]) IsSet() bool { return f.state == fieldSet }

// Clears reports whether the field erases the stored value.
func (f Field[T]) Clears() bool { return f.state == fieldClear }

// Get returns the replacement value and whether one is carried.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.state == fieldSet
}

// UnmarshalJSON distinguishes explicit null from a provided value. Absent
// fields never reach UnmarshalJSON and stay unset.
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Field[T]{state: fieldClear}
		return nil
	}

	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Field[T]{state: fieldSet, value: v}
	return nil
}

// MarshalJSON renders set values verbatim and everything else as null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.state != fieldSet {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}
