// Package types implements PaulDB's closed registry of scalar value
// types: validation, equality, ordering, nullability, and binary
// (de)serialization for the primitive set a record column may carry.
package types

import "fmt"

// Null is the explicit null sentinel for nullable types. It orders
// strictly below every non-null value of the wrapped type.
type Null struct{}

// Type is a first-class scalar type descriptor. Implementations are
// exposed by Bool, Int16, Int32, UInt16, UInt32, Float, String, Date,
// Timestamp, UUID, JSON, Blob and Serial, and by Nullable/Array
// compositions over any of those.
type Type interface {
	// Name is the type's stable, parseable name (e.g. "int32", "string[]?").
	Name() string

	// IsValid reports whether v is a value this type accepts.
	IsValid(v any) bool

	// Equal reports value equality. Both operands must satisfy IsValid.
	Equal(a, b any) bool

	// Compare returns -1, 0 or 1 for a total pre-order that agrees with
	// Equal. Arrays of differing length fall back to length ordering.
	Compare(a, b any) int

	// MinValue returns the type's minimum value, used to seed Min/Max
	// aggregates. ok is false if the type has no minimum.
	MinValue() (v any, ok bool)

	// Nullable returns the nullable composition over this type.
	Nullable() Type

	// Array returns the array composition over this type.
	Array() Type

	// Codec returns the type's binary codec, or nil if the type (or one
	// of its element types) carries no codec.
	Codec() Codec
}

// Codec is a type's binary (de)serialization strategy. A codec is
// either fixed-width (FixedSize returns ok=true) or variable-width
// (Size must be called per value).
type Codec interface {
	// FixedSize returns the codec's constant size and true, or (0,
	// false) if the codec is variable-width.
	FixedSize() (size int, ok bool)

	// Size returns the number of bytes Write will use for v.
	Size(v any) int

	// Write encodes v into buf starting at offset, returning the number
	// of bytes written.
	Write(v any, buf []byte, offset int) int

	// Read decodes a value from buf starting at offset, returning the
	// value and the number of bytes consumed.
	Read(buf []byte, offset int) (v any, n int)
}

// ErrInvalidValue is returned (wrapped) when a Literal's value fails
// IsValid for its declared type.
type ErrInvalidValue struct {
	Type  string
	Value any
}

func (e *ErrInvalidValue) Error() string {
	return fmt.Sprintf("value %#v is not valid for type %s", e.Value, e.Type)
}

// isNull reports whether v is the explicit null sentinel.
func isNull(v any) bool {
	_, ok := v.(Null)
	return ok
}
