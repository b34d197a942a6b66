// Package wire implements the tagged binary format used by the checkers
// module records. It is byte-compatible with the protobuf encoding: every
// field is a varint tag (field number << 3 | wire type) followed by a varint
// or a length-delimited payload, and zero values are never emitted.
package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Number is a schema field number.
type Number = protowire.Number

// Wire types used by the checkers schema.
const (
	VarintType = protowire.VarintType
	BytesType  = protowire.BytesType
)

// Marshaler is implemented by every record kind.
type Marshaler interface {
	Marshal() []byte
}

// Unmarshaler is implemented by pointers to every record kind.
type Unmarshaler interface {
	Unmarshal(b []byte) error
}

// Writer accumulates an encoded record. Fields must be written in ascending
// field number order.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the encoded buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// String writes a length-delimited string field unless v is empty.
func (w *Writer) String(num Number, v string) {
	if v == "" {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, BytesType)
	w.buf = protowire.AppendString(w.buf, v)
}

// Uint64 writes a varint field unless v is zero.
func (w *Writer) Uint64(num Number, v uint64) {
	if v == 0 {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, VarintType)
	w.buf = protowire.AppendVarint(w.buf, v)
}

// Int32 writes a sign-extended varint field unless v is zero.
func (w *Writer) Int32(num Number, v int32) {
	if v == 0 {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, VarintType)
	w.buf = protowire.AppendVarint(w.buf, uint64(int64(v)))
}

// Bool writes a varint field unless v is false.
func (w *Writer) Bool(num Number, v bool) {
	if !v {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, VarintType)
	w.buf = protowire.AppendVarint(w.buf, protowire.EncodeBool(v))
}

// RawBytes writes a length-delimited bytes field unless v is empty.
func (w *Writer) RawBytes(num Number, v []byte) {
	if len(v) == 0 {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, BytesType)
	w.buf = protowire.AppendBytes(w.buf, v)
}

// Message writes a nested record unless it encodes to nothing, which is the
// case exactly when every field of the record holds its zero value.
func (w *Writer) Message(num Number, m Marshaler) {
	b := m.Marshal()
	if len(b) == 0 {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, BytesType)
	w.buf = protowire.AppendBytes(w.buf, b)
}

// Element writes one entry of a repeated nested field. Unlike Message the
// entry is emitted even when empty so the element count survives a round trip.
func (w *Writer) Element(num Number, m Marshaler) {
	w.buf = protowire.AppendTag(w.buf, num, BytesType)
	w.buf = protowire.AppendBytes(w.buf, m.Marshal())
}
