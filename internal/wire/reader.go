package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// maxVarintLen is the longest varint able to carry 64 bits.
const maxVarintLen = 10

// Reader walks the fields of one encoded record. Every read is bounded by
// the buffer handed to NewReader.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader over b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Done reports whether the whole buffer has been consumed.
func (r *Reader) Done() bool {
	return r.off >= len(r.buf)
}

// Offset returns the position of the next unread byte.
func (r *Reader) Offset() int {
	return r.off
}

// Next reads the next field tag.
func (r *Reader) Next() (Number, protowire.Type, error) {
	start := r.off
	v, err := r.varint()
	if err != nil {
		return 0, 0, err
	}
	num, typ := protowire.DecodeTag(v)
	if !num.IsValid() {
		r.off = start
		return 0, 0, malformed(start, fmt.Sprintf("invalid field number %d", v>>3))
	}
	return num, typ, nil
}

// Uint64 reads a varint field value.
func (r *Reader) Uint64() (uint64, error) {
	return r.varint()
}

// Int32 reads a sign-extended varint and rejects values outside int32.
func (r *Reader) Int32() (int32, error) {
	start := r.off
	v, err := r.varint()
	if err != nil {
		return 0, err
	}
	s := int64(v)
	if s < math.MinInt32 || s > math.MaxInt32 {
		return 0, &IntegerOverflowError{Offset: start, Bits: 32}
	}
	return int32(s), nil
}

// Bool reads a varint field value as a boolean.
func (r *Reader) Bool() (bool, error) {
	v, err := r.varint()
	if err != nil {
		return false, err
	}
	return protowire.DecodeBool(v), nil
}

// String reads a length-delimited string.
func (r *Reader) String() (string, error) {
	b, err := r.lengthDelimited()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// RawBytes reads a length-delimited byte slice. The result does not alias
// the input buffer.
func (r *Reader) RawBytes() ([]byte, error) {
	b, err := r.lengthDelimited()
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

// Message decodes a nested record bounded by its length prefix.
func (r *Reader) Message(u Unmarshaler) error {
	b, err := r.lengthDelimited()
	if err != nil {
		return err
	}
	if err := u.Unmarshal(b); err != nil {
		return rebase(err, r.off-len(b))
	}
	return nil
}

// Skip consumes the value of a field the schema does not know.
func (r *Reader) Skip(num Number, typ protowire.Type) error {
	n := protowire.ConsumeFieldValue(num, typ, r.buf[r.off:])
	if n < 0 {
		return malformed(r.off, fmt.Sprintf("skip field %d: %v", num, protowire.ParseError(n)))
	}
	r.off += n
	return nil
}

func (r *Reader) varint() (uint64, error) {
	rest := r.buf[r.off:]
	v, n := protowire.ConsumeVarint(rest)
	if n < 0 {
		switch {
		case len(rest) < maxVarintLen:
			return 0, malformed(r.off, "truncated varint")
		case rest[maxVarintLen-1]&0x80 != 0:
			return 0, malformed(r.off, "varint does not terminate")
		default:
			return 0, &IntegerOverflowError{Offset: r.off, Bits: 64}
		}
	}
	r.off += n
	return v, nil
}

func (r *Reader) lengthDelimited() ([]byte, error) {
	start := r.off
	l, err := r.varint()
	if err != nil {
		var overflow *IntegerOverflowError
		if errors.As(err, &overflow) {
			return nil, malformed(start, "length prefix overflows")
		}
		return nil, err
	}
	remaining := len(r.buf) - r.off
	if l > uint64(remaining) {
		r.off = start
		return nil, malformed(start, fmt.Sprintf("length %d exceeds remaining %d bytes", l, remaining))
	}
	b := r.buf[r.off : r.off+int(l)]
	r.off += int(l)
	return b, nil
}

// rebase shifts the offset of errors produced while decoding a nested buffer
// so that they point into the outer buffer.
func rebase(err error, base int) error {
	var m *MalformedWireDataError
	if errors.As(err, &m) {
		return &MalformedWireDataError{Offset: base + m.Offset, Reason: m.Reason}
	}
	var o *IntegerOverflowError
	if errors.As(err, &o) && o.Field == "" {
		return &IntegerOverflowError{Offset: base + o.Offset, Bits: o.Bits}
	}
	return err
}
