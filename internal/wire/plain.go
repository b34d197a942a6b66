package wire

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

// Plain is the JSON-shaped form of a record: camelCase keys, uint64 values
// as decimal strings, bytes as base64, nested records as nested Plain values.
type Plain = map[string]any

// FormatUint64 renders an unsigned integer the way Plain carries it.
func FormatUint64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// FormatBytes renders a byte slice the way Plain carries it.
func FormatBytes(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// PlainString reads a string field. Absent or nil keys yield "".
func PlainString(p Plain, key string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &FieldError{Field: key, Want: "string", Got: v}
	}
	return s, nil
}

// PlainUint64 reads an unsigned integer field given as a decimal string, a
// JSON number or a Go integer. Absent or nil keys yield 0.
func PlainUint64(p Plain, key string) (uint64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case string:
		return parseUint(key, n)
	case json.Number:
		return parseUint(key, n.String())
	case float64:
		if n < 0 || n != math.Trunc(n) {
			return 0, &FieldError{Field: key, Want: "unsigned integer", Got: v}
		}
		if n >= math.MaxUint64 {
			return 0, &IntegerOverflowError{Field: key, Value: strconv.FormatFloat(n, 'f', -1, 64), Bits: 64}
		}
		return uint64(n), nil
	case uint64:
		return n, nil
	case uint32:
		return uint64(n), nil
	case uint:
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, &FieldError{Field: key, Want: "unsigned integer", Got: v}
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, &FieldError{Field: key, Want: "unsigned integer", Got: v}
		}
		return uint64(n), nil
	default:
		return 0, &FieldError{Field: key, Want: "unsigned integer", Got: v}
	}
}

// PlainInt32 reads a signed 32-bit field.
func PlainInt32(p Plain, key string) (int32, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, nil
	}
	var s string
	switch n := v.(type) {
	case string:
		s = n
	case json.Number:
		s = n.String()
	case float64:
		if n != math.Trunc(n) {
			return 0, &FieldError{Field: key, Want: "integer", Got: v}
		}
		s = strconv.FormatFloat(n, 'f', -1, 64)
	case int32:
		return n, nil
	case int:
		s = strconv.Itoa(n)
	case int64:
		s = strconv.FormatInt(n, 10)
	default:
		return 0, &FieldError{Field: key, Want: "integer", Got: v}
	}
	i, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &IntegerOverflowError{Field: key, Value: s, Bits: 32}
		}
		return 0, &FieldError{Field: key, Want: "integer", Got: v}
	}
	return int32(i), nil
}

// PlainBool reads a boolean field.
func PlainBool(p Plain, key string) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, &FieldError{Field: key, Want: "bool", Got: v}
	}
	return b, nil
}

// PlainBytes reads a base64 encoded bytes field.
func PlainBytes(p Plain, key string) ([]byte, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch b := v.(type) {
	case []byte:
		return append([]byte(nil), b...), nil
	case string:
		if b == "" {
			return nil, nil
		}
		out, err := base64.StdEncoding.DecodeString(b)
		if err != nil {
			return nil, &FieldError{Field: key, Want: "base64 string", Got: v}
		}
		return out, nil
	default:
		return nil, &FieldError{Field: key, Want: "base64 string", Got: v}
	}
}

// PlainObject reads a nested record. Absent or nil keys yield an empty Plain
// so the nested record takes its zero value.
func PlainObject(p Plain, key string) (Plain, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return Plain{}, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &FieldError{Field: key, Want: "object", Got: v}
	}
	return obj, nil
}

// PlainList reads a repeated nested record field.
func PlainList(p Plain, key string) ([]Plain, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []Plain:
		return list, nil
	case []any:
		out := make([]Plain, 0, len(list))
		for _, item := range list {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, &FieldError{Field: key, Want: "list of objects", Got: item}
			}
			out = append(out, obj)
		}
		return out, nil
	default:
		return nil, &FieldError{Field: key, Want: "list of objects", Got: v}
	}
}

func parseUint(key, s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &IntegerOverflowError{Field: key, Value: s, Bits: 64}
		}
		return 0, &FieldError{Field: key, Want: "decimal string", Got: s}
	}
	return n, nil
}
