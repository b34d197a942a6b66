package domain

import (
	"errors"

	"checkers-client/internal/wire"
)

// ErrDuplicateWinner is returned by Leaderboard.Validate.
var ErrDuplicateWinner = errors.New("duplicated index for winner")

// WinningPlayer is one leaderboard row.
type WinningPlayer struct {
	PlayerAddress string
	WonCount      uint64
	DateAdded     string
}

// Marshal encodes p.
func (p WinningPlayer) Marshal() []byte {
	w := wire.NewWriter()
	w.String(1, p.PlayerAddress)
	w.Uint64(2, p.WonCount)
	w.String(3, p.DateAdded)
	return w.Bytes()
}

// Unmarshal decodes b into p.
func (p *WinningPlayer) Unmarshal(b []byte) error {
	var out WinningPlayer
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case num == 1 && typ == wire.BytesType:
			out.PlayerAddress, err = r.String()
		case num == 2 && typ == wire.VarintType:
			out.WonCount, err = r.Uint64()
		case num == 3 && typ == wire.BytesType:
			out.DateAdded, err = r.String()
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
func (p WinningPlayer) Plain() wire.Plain {
	return wire.Plain{
		"playerAddress": p.PlayerAddress,
		"wonCount":      wire.FormatUint64(p.WonCount),
		"dateAdded":     p.DateAdded,
	}
}

// FromPlain sets p from a plain object.
func (p *WinningPlayer) FromPlain(obj wire.Plain) error {
	var (
		out WinningPlayer
		err error
	)
	if out.PlayerAddress, err = wire.PlainString(obj, "playerAddress"); err != nil {
		return err
	}
	if out.WonCount, err = wire.PlainUint64(obj, "wonCount"); err != nil {
		return err
	}
	if out.DateAdded, err = wire.PlainString(obj, "dateAdded"); err != nil {
		return err
	}
	*p = out
	return nil
}

// Leaderboard lists the best players.
type Leaderboard struct {
	Winners []WinningPlayer
}

// Marshal encodes l.
func (l Leaderboard) Marshal() []byte {
	w := wire.NewWriter()
	for _, winner := range l.Winners {
		w.Element(1, winner)
	}
	return w.Bytes()
}

// Unmarshal decodes b into l.
func (l *Leaderboard) Unmarshal(b []byte) error {
	var out Leaderboard
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case num == 1 && typ == wire.BytesType:
			var winner WinningPlayer
			if err = r.Message(&winner); err == nil {
				out.Winners = append(out.Winners, winner)
			}
		default:
			err = r.Skip(num, typ)
		}
		if err != nil {
			return err
		}
	}
	*l = out
	return nil
}

// Plain returns the plain-object form of l.
func (l Leaderboard) Plain() wire.Plain {
	winners := make([]any, 0, len(l.Winners))
	for _, w := range l.Winners {
		winners = append(winners, w.Plain())
	}
	return wire.Plain{"winners": winners}
}

// FromPlain sets l from a plain object.
func (l *Leaderboard) FromPlain(p wire.Plain) error {
	list, err := wire.PlainList(p, "winners")
	if err != nil {
		return err
	}
	var out Leaderboard
	for _, item := range list {
		var winner WinningPlayer
		if err := winner.FromPlain(item); err != nil {
			return err
		}
		out.Winners = append(out.Winners, winner)
	}
	*l = out
	return nil
}

// Validate rejects leaderboards listing the same player twice.
func (l Leaderboard) Validate() error {
	seen := make(map[string]struct{}, len(l.Winners))
	for _, w := range l.Winners {
		if _, ok := seen[w.PlayerAddress]; ok {
			return ErrDuplicateWinner
		}
		seen[w.PlayerAddress] = struct{}{}
	}
	return nil
}
