package domain

import "checkers-client/internal/wire"

// PlayerInfo holds the win/loss record of one player, indexed by address.
type PlayerInfo struct {
	Index          string
	WonCount       uint64
	LostCount      uint64
	ForfeitedCount uint64
}

// Marshal encodes p.
func (p PlayerInfo) Marshal() []byte {
	w := wire.NewWriter()
	w.String(1, p.Index)
	w.Uint64(2, p.WonCount)
	w.Uint64(3, p.LostCount)
	w.Uint64(4, p.ForfeitedCount)
	return w.Bytes()
}

// Unmarshal decodes b into p.
func (p *PlayerInfo) Unmarshal(b []byte) error {
	var out PlayerInfo
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case num == 1 && typ == wire.BytesType:
			out.Index, err = r.String()
		case num == 2 && typ == wire.VarintType:
			out.WonCount, err = r.Uint64()
		case num == 3 && typ == wire.VarintType:
			out.LostCount, err = r.Uint64()
		case num == 4 && typ == wire.VarintType:
			out.ForfeitedCount, err = r.Uint64()
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
func (p PlayerInfo) Plain() wire.Plain {
	return wire.Plain{
		"index":          p.Index,
		"wonCount":       wire.FormatUint64(p.WonCount),
		"lostCount":      wire.FormatUint64(p.LostCount),
		"forfeitedCount": wire.FormatUint64(p.ForfeitedCount),
	}
}

// FromPlain sets p from a plain object.
func (p *PlayerInfo) FromPlain(obj wire.Plain) error {
	var (
		out PlayerInfo
		err error
	)
	if out.Index, err = wire.PlainString(obj, "index"); err != nil {
		return err
	}
	if out.WonCount, err = wire.PlainUint64(obj, "wonCount"); err != nil {
		return err
	}
	if out.LostCount, err = wire.PlainUint64(obj, "lostCount"); err != nil {
		return err
	}
	if out.ForfeitedCount, err = wire.PlainUint64(obj, "forfeitedCount"); err != nil {
		return err
	}
	*p = out
	return nil
}

// Validate checks that the index is a valid account address.
func (p PlayerInfo) Validate() error {
	return ValidateAddress(p.Index)
}
