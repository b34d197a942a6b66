package domain

import (
	"bytes"

	"checkers-client/internal/wire"
)

// PageRequest is the pagination filter of list queries
// (cosmos.base.query.v1beta1.PageRequest).
type PageRequest struct {
	Key        []byte
	Offset     uint64
	Limit      uint64
	CountTotal bool
	Reverse    bool
}

// Marshal encodes p.
func (p PageRequest) Marshal() []byte {
	w := wire.NewWriter()
	w.RawBytes(1, p.Key)
	w.Uint64(2, p.Offset)
	w.Uint64(3, p.Limit)
	w.Bool(4, p.CountTotal)
	w.Bool(5, p.Reverse)
	return w.Bytes()
}

// Unmarshal decodes b into p.
func (p *PageRequest) Unmarshal(b []byte) error {
	var out PageRequest
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case num == 1 && typ == wire.BytesType:
			out.Key, err = r.RawBytes()
		case num == 2 && typ == wire.VarintType:
			out.Offset, err = r.Uint64()
		case num == 3 && typ == wire.VarintType:
			out.Limit, err = r.Uint64()
		case num == 4 && typ == wire.VarintType:
			out.CountTotal, err = r.Bool()
		case num == 5 && typ == wire.VarintType:
			out.Reverse, err = r.Bool()
		default:
			err = r.Skip(num, typ)
		}
		if err != nil {
			return err
		}
	}
	*p = out
	return nil
}

// Plain returns the plain-object form of p.
func (p PageRequest) Plain() wire.Plain {
	return wire.Plain{
		"key":        wire.FormatBytes(p.Key),
		"offset":     wire.FormatUint64(p.Offset),
		"limit":      wire.FormatUint64(p.Limit),
		"countTotal": p.CountTotal,
		"reverse":    p.Reverse,
	}
}

// FromPlain sets p from a plain object.
func (p *PageRequest) FromPlain(obj wire.Plain) error {
	var (
		out PageRequest
		err error
	)
	if out.Key, err = wire.PlainBytes(obj, "key"); err != nil {
		return err
	}
	if out.Offset, err = wire.PlainUint64(obj, "offset"); err != nil {
		return err
	}
	if out.Limit, err = wire.PlainUint64(obj, "limit"); err != nil {
		return err
	}
	if out.CountTotal, err = wire.PlainBool(obj, "countTotal"); err != nil {
		return err
	}
	if out.Reverse, err = wire.PlainBool(obj, "reverse"); err != nil {
		return err
	}
	*p = out
	return nil
}

// IsZero reports whether no pagination option is set.
func (p PageRequest) IsZero() bool {
	return len(p.Key) == 0 && p.Offset == 0 && p.Limit == 0 && !p.CountTotal && !p.Reverse
}

// Equal reports whether p and o select the same page.
func (p PageRequest) Equal(o PageRequest) bool {
	return bytes.Equal(p.Key, o.Key) && p.Offset == o.Offset && p.Limit == o.Limit &&
		p.CountTotal == o.CountTotal && p.Reverse == o.Reverse
}

// PageResponse carries the cursor of the next page
// (cosmos.base.query.v1beta1.PageResponse).
type PageResponse struct {
	NextKey []byte
	Total   uint64
}

// Marshal encodes p.
func (p PageResponse) Marshal() []byte {
	w := wire.NewWriter()
	w.RawBytes(1, p.NextKey)
	w.Uint64(2, p.Total)
	return w.Bytes()
}

// Unmarshal decodes b into p.
func (p *PageResponse) Unmarshal(b []byte) error {
	var out PageResponse
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case num == 1 && typ == wire.BytesType:
			out.NextKey, err = r.RawBytes()
		case num == 2 && typ == wire.VarintType:
			out.Total, err = r.Uint64()
		default:
			err = r.Skip(num, typ)
		}
		if err != nil {
			return err
		}
	}
	*p = out
	return nil
}

// Plain returns the plain-object form of p.
func (p PageResponse) Plain() wire.Plain {
	return wire.Plain{
		"nextKey": wire.FormatBytes(p.NextKey),
		"total":   wire.FormatUint64(p.Total),
	}
}

// FromPlain sets p from a plain object.
func (p *PageResponse) FromPlain(obj wire.Plain) error {
	var (
		out PageResponse
		err error
	)
	if out.NextKey, err = wire.PlainBytes(obj, "nextKey"); err != nil {
		return err
	}
	if out.Total, err = wire.PlainUint64(obj, "total"); err != nil {
		return err
	}
	*p = out
	return nil
}
