package domain

import "checkers-client/internal/wire"

// SystemInfo tracks the next game id and the head and tail of the game FIFO.
type SystemInfo struct {
	NextID        uint64
	FifoHeadIndex string
	FifoTailIndex string
}

// Marshal encodes s.
func (s SystemInfo) Marshal() []byte {
	w := wire.NewWriter()
	w.Uint64(1, s.NextID)
	w.String(2, s.FifoHeadIndex)
	w.String(3, s.FifoTailIndex)
	return w.Bytes()
}

// Unmarshal decodes b into s.
func (s *SystemInfo) Unmarshal(b []byte) error {
	var out SystemInfo
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case num == 1 && typ == wire.VarintType:
			out.NextID, err = r.Uint64()
		case num == 2 && typ == wire.BytesType:
			out.FifoHeadIndex, err = r.String()
		case num == 3 && typ == wire.BytesType:
			out.FifoTailIndex, err = r.String()
		default:
			err = r.Skip(num, typ)
		}
		if err != nil {
			return err
		}
	}
	*s = out
	return nil
}

// Plain returns the plain-object form of s.
func (s SystemInfo) Plain() wire.Plain {
	return wire.Plain{
		"nextId":        wire.FormatUint64(s.NextID),
		"fifoHeadIndex": s.FifoHeadIndex,
		"fifoTailIndex": s.FifoTailIndex,
	}
}

// FromPlain sets s from a plain object.
func (s *SystemInfo) FromPlain(p wire.Plain) error {
	var (
		out SystemInfo
		err error
	)
	if out.NextID, err = wire.PlainUint64(p, "nextId"); err != nil {
		return err
	}
	if out.FifoHeadIndex, err = wire.PlainString(p, "fifoHeadIndex"); err != nil {
		return err
	}
	if out.FifoTailIndex, err = wire.PlainString(p, "fifoTailIndex"); err != nil {
		return err
	}
	*s = out
	return nil
}
