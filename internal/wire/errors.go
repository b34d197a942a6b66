package wire

import "fmt"

// MalformedWireDataError is returned when a buffer cannot be parsed: a length
// prefix runs past the end of the buffer, a varint never terminates, or a tag
// carries an invalid field number.
type MalformedWireDataError struct {
	Offset int
	Reason string
}

func (e *MalformedWireDataError) Error() string {
	return fmt.Sprintf("malformed wire data at offset %d: %s", e.Offset, e.Reason)
}

// IntegerOverflowError is returned when an integer does not fit the in-memory
// type of its field. Values are never truncated.
type IntegerOverflowError struct {
	Field  string
	Offset int
	Value  string
	Bits   int
}

func (e *IntegerOverflowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("integer overflow in field %q: %s exceeds %d bits", e.Field, e.Value, e.Bits)
	}
	return fmt.Sprintf("integer overflow at offset %d: value exceeds %d bits", e.Offset, e.Bits)
}

// FieldError is returned by plain-object conversion when a key holds a value
// of the wrong shape.
type FieldError struct {
	Field string
	Want  string
	Got   any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: want %s, got %T", e.Field, e.Want, e.Got)
}

func malformed(off int, reason string) error {
	return &MalformedWireDataError{Offset: off, Reason: reason}
}
