package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriter_OmitsZeroValues(t *testing.T) {
	w := NewWriter()
	w.String(1, "")
	w.Uint64(2, 0)
	w.Bool(3, false)
	w.RawBytes(4, nil)
	w.Int32(5, 0)
	require.Empty(t, w.Bytes())
}

func TestWriter_Tags(t *testing.T) {
	w := NewWriter()
	w.String(1, "ab")
	w.Uint64(2, 300)
	w.Bool(3, true)
	require.Equal(t, []byte{0x0a, 0x02, 'a', 'b', 0x10, 0xac, 0x02, 0x18, 0x01}, w.Bytes())
}

func TestWriter_NegativeInt32IsSignExtended(t *testing.T) {
	w := NewWriter()
	w.Int32(1, -1)
	require.Equal(t, []byte{0x08, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}, w.Bytes())

	r := NewReader(w.Bytes())
	_, _, err := r.Next()
	require.NoError(t, err)
	v, err := r.Int32()
	require.NoError(t, err)
	require.Equal(t, int32(-1), v)
	require.True(t, r.Done())
}

func TestReader_TruncatedLength(t *testing.T) {
	// field 1, length 5, only 2 bytes follow
	r := NewReader([]byte{0x0a, 0x05, 'a', 'b'})
	_, _, err := r.Next()
	require.NoError(t, err)

	_, err = r.String()
	var malformedErr *MalformedWireDataError
	require.ErrorAs(t, err, &malformedErr)
	require.Equal(t, 1, malformedErr.Offset)
}

func TestReader_UnterminatedVarint(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"short", []byte{0x80, 0x80}},
		{"ten continuation bytes", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewReader(tt.buf).Next()
			var malformedErr *MalformedWireDataError
			require.ErrorAs(t, err, &malformedErr)
		})
	}
}

func TestReader_VarintOverflow(t *testing.T) {
	// tag for field 1 varint, then a 10-byte varint whose last byte carries more than one bit
	buf := []byte{0x08, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02}
	r := NewReader(buf)
	_, _, err := r.Next()
	require.NoError(t, err)

	_, err = r.Uint64()
	var overflow *IntegerOverflowError
	require.ErrorAs(t, err, &overflow)
	require.Equal(t, 64, overflow.Bits)
}

func TestReader_Int32OutOfRange(t *testing.T) {
	w := NewWriter()
	w.Uint64(1, 1<<40)
	r := NewReader(w.Bytes())
	_, _, err := r.Next()
	require.NoError(t, err)

	_, err = r.Int32()
	var overflow *IntegerOverflowError
	require.ErrorAs(t, err, &overflow)
	require.Equal(t, 32, overflow.Bits)
}

func TestReader_InvalidFieldNumber(t *testing.T) {
	// tag 0x02 is field number 0
	_, _, err := NewReader([]byte{0x02, 0x00}).Next()
	var malformedErr *MalformedWireDataError
	require.ErrorAs(t, err, &malformedErr)
}

func TestReader_SkipUnknownFields(t *testing.T) {
	w := NewWriter()
	w.String(7, "unknown")
	w.Uint64(8, 42)
	w.String(1, "known")
	buf := append(w.Bytes(), 0x4d, 1, 2, 3, 4) // field 9, fixed32

	r := NewReader(buf)
	var got string
	for !r.Done() {
		num, typ, err := r.Next()
		require.NoError(t, err)
		if num == 1 {
			got, err = r.String()
		} else {
			err = r.Skip(num, typ)
		}
		require.NoError(t, err)
	}
	require.Equal(t, "known", got)
}

func TestReader_SkipTruncated(t *testing.T) {
	r := NewReader([]byte{0x3a, 0x09, 'x'})
	num, typ, err := r.Next()
	require.NoError(t, err)

	err = r.Skip(num, typ)
	var malformedErr *MalformedWireDataError
	require.True(t, errors.As(err, &malformedErr))
}

func TestPlainUint64(t *testing.T) {
	p := Plain{
		"str":      "12345",
		"float":    float64(7),
		"int":      3,
		"overflow": "18446744073709551616",
		"negative": "-1",
		"object":   Plain{},
		"fraction": 1.5,
	}

	v, err := PlainUint64(p, "str")
	require.NoError(t, err)
	require.Equal(t, uint64(12345), v)

	v, err = PlainUint64(p, "float")
	require.NoError(t, err)
	require.Equal(t, uint64(7), v)

	v, err = PlainUint64(p, "int")
	require.NoError(t, err)
	require.Equal(t, uint64(3), v)

	v, err = PlainUint64(p, "absent")
	require.NoError(t, err)
	require.Zero(t, v)

	_, err = PlainUint64(p, "overflow")
	var overflow *IntegerOverflowError
	require.ErrorAs(t, err, &overflow)
	require.Equal(t, "overflow", overflow.Field)

	for _, key := range []string{"negative", "object", "fraction"} {
		_, err = PlainUint64(p, key)
		var fieldErr *FieldError
		require.ErrorAs(t, err, &fieldErr, key)
	}
}

func TestPlainInt32_Overflow(t *testing.T) {
	_, err := PlainInt32(Plain{"x": "2147483648"}, "x")
	var overflow *IntegerOverflowError
	require.ErrorAs(t, err, &overflow)

	v, err := PlainInt32(Plain{"x": "-1"}, "x")
	require.NoError(t, err)
	require.Equal(t, int32(-1), v)
}

func TestPlainBytesAndList(t *testing.T) {
	b, err := PlainBytes(Plain{"k": FormatBytes([]byte{1, 2, 3})}, "k")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, b)

	_, err = PlainBytes(Plain{"k": "not base64!"}, "k")
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)

	list, err := PlainList(Plain{"l": []any{map[string]any{"a": "b"}}}, "l")
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = PlainList(Plain{"l": []any{"nope"}}, "l")
	require.ErrorAs(t, err, &fieldErr)
}
