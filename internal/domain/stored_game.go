package domain

import (
	"fmt"
	"time"

	"checkers-client/internal/wire"
)

// DeadlineLayout is the time layout of StoredGame.Deadline.
const DeadlineLayout = "2006-01-02 15:04:05.999999999 +0000 UTC"

// NoFifoIndex marks the absence of a neighbour in the game FIFO.
const NoFifoIndex = "-1"

// StoredGame is one checkers game as kept on chain.
type StoredGame struct {
	Index       string
	Board       string
	Turn        string
	Black       string
	Red         string
	MoveCount   uint64
	BeforeIndex string
	AfterIndex  string
	Deadline    string
	Winner      string
	Wager       uint64
}

// Marshal encodes g.
func (g StoredGame) Marshal() []byte {
	w := wire.NewWriter()
	w.String(1, g.Index)
	w.String(2, g.Board)
	w.String(3, g.Turn)
	w.String(4, g.Black)
	w.String(5, g.Red)
	w.Uint64(6, g.MoveCount)
	w.String(7, g.BeforeIndex)
	w.String(8, g.AfterIndex)
	w.String(9, g.Deadline)
	w.String(10, g.Winner)
	w.Uint64(11, g.Wager)
	return w.Bytes()
}

// Unmarshal decodes b into g.
func (g *StoredGame) Unmarshal(b []byte) error {
	var out StoredGame
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case num == 1 && typ == wire.BytesType:
			out.Index, err = r.String()
		case num == 2 && typ == wire.BytesType:
			out.Board, err = r.String()
		case num == 3 && typ == wire.BytesType:
			out.Turn, err = r.String()
		case num == 4 && typ == wire.BytesType:
			out.Black, err = r.String()
		case num == 5 && typ == wire.BytesType:
			out.Red, err = r.String()
		case num == 6 && typ == wire.VarintType:
			out.MoveCount, err = r.Uint64()
		case num == 7 && typ == wire.BytesType:
			out.BeforeIndex, err = r.String()
		case num == 8 && typ == wire.BytesType:
			out.AfterIndex, err = r.String()
		case num == 9 && typ == wire.BytesType:
			out.Deadline, err = r.String()
		case num == 10 && typ == wire.BytesType:
			out.Winner, err = r.String()
		case num == 11 && typ == wire.VarintType:
			out.Wager, err = r.Uint64()
		default:
			err = r.Skip(num, typ)
		}
		if err != nil {
			return err
		}
	}
	*g = out
	return nil
}

// Plain returns the plain-object form of g.
func (g StoredGame) Plain() wire.Plain {
	return wire.Plain{
		"index":       g.Index,
		"board":       g.Board,
		"turn":        g.Turn,
		"black":       g.Black,
		"red":         g.Red,
		"moveCount":   wire.FormatUint64(g.MoveCount),
		"beforeIndex": g.BeforeIndex,
		"afterIndex":  g.AfterIndex,
		"deadline":    g.Deadline,
		"winner":      g.Winner,
		"wager":       wire.FormatUint64(g.Wager),
	}
}

// FromPlain sets g from a plain object.
func (g *StoredGame) FromPlain(p wire.Plain) error {
	var out StoredGame
	fields := []struct {
		key string
		dst *string
	}{
		{"index", &out.Index},
		{"board", &out.Board},
		{"turn", &out.Turn},
		{"black", &out.Black},
		{"red", &out.Red},
		{"beforeIndex", &out.BeforeIndex},
		{"afterIndex", &out.AfterIndex},
		{"deadline", &out.Deadline},
		{"winner", &out.Winner},
	}
	for _, f := range fields {
		s, err := wire.PlainString(p, f.key)
		if err != nil {
			return err
		}
		*f.dst = s
	}
	var err error
	if out.MoveCount, err = wire.PlainUint64(p, "moveCount"); err != nil {
		return err
	}
	if out.Wager, err = wire.PlainUint64(p, "wager"); err != nil {
		return err
	}
	*g = out
	return nil
}

// GetDeadline parses the game deadline.
func (g StoredGame) GetDeadline() (time.Time, error) {
	return time.Parse(DeadlineLayout, g.Deadline)
}

// Validate checks the player addresses and the deadline format.
func (g StoredGame) Validate() error {
	if err := ValidateAddress(g.Black); err != nil {
		return fmt.Errorf("black address is invalid: %w", err)
	}
	if err := ValidateAddress(g.Red); err != nil {
		return fmt.Errorf("red address is invalid: %w", err)
	}
	if _, err := g.GetDeadline(); err != nil {
		return fmt.Errorf("deadline cannot be parsed: %s: %w", g.Deadline, err)
	}
	return nil
}
