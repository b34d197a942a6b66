package domain

import (
	"errors"
	"fmt"

	"checkers-client/internal/wire"
)

// ErrEmptyGameIndex is returned when a message does not name a game.
var ErrEmptyGameIndex = errors.New("game index cannot be empty")

// Msg is implemented by the transaction messages of the module. The set is
// closed: only the message types declared in this package satisfy it.
type Msg interface {
	Record
	// MsgName is the unqualified schema name, e.g. "MsgPlayMove".
	MsgName() string
	ValidateBasic() error
	isMsg()
}

// TypeURL returns the fully qualified type name of a message name.
func TypeURL(msgName string) string {
	return "/" + ProtoPackage + "." + msgName
}

// Any is a typed, encoded message as carried inside transactions.
type Any struct {
	TypeURL string
	Value   []byte
}

// Marshal encodes a.
func (a Any) Marshal() []byte {
	w := wire.NewWriter()
	w.String(1, a.TypeURL)
	w.RawBytes(2, a.Value)
	return w.Bytes()
}

// Unmarshal decodes b into a.
func (a *Any) Unmarshal(b []byte) error {
	var out Any
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case num == 1 && typ == wire.BytesType:
			out.TypeURL, err = r.String()
		case num == 2 && typ == wire.BytesType:
			out.Value, err = r.RawBytes()
		default:
			err = r.Skip(num, typ)
		}
		if err != nil {
			return err
		}
	}
	*a = out
	return nil
}

// Plain returns the plain-object form of a.
func (a Any) Plain() wire.Plain {
	return wire.Plain{"typeUrl": a.TypeURL, "value": wire.FormatBytes(a.Value)}
}

// MsgCreateGame opens a new game between black and red.
type MsgCreateGame struct {
	Creator string
	Black   string
	Red     string
	Wager   uint64
}

func (*MsgCreateGame) isMsg() {}

// MsgName implements Msg.
func (*MsgCreateGame) MsgName() string { return "MsgCreateGame" }

// Marshal encodes m.
func (m MsgCreateGame) Marshal() []byte {
	w := wire.NewWriter()
	w.String(1, m.Creator)
	w.String(2, m.Black)
	w.String(3, m.Red)
	w.Uint64(4, m.Wager)
	return w.Bytes()
}

// Unmarshal decodes b into m.
func (m *MsgCreateGame) Unmarshal(b []byte) error {
	var out MsgCreateGame
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case num == 1 && typ == wire.BytesType:
			out.Creator, err = r.String()
		case num == 2 && typ == wire.BytesType:
			out.Black, err = r.String()
		case num == 3 && typ == wire.BytesType:
			out.Red, err = r.String()
		case num == 4 && typ == wire.VarintType:
			out.Wager, err = r.Uint64()
		default:
			err = r.Skip(num, typ)
		}
		if err != nil {
			return err
		}
	}
	*m = out
	return nil
}

// Plain returns the plain-object form of m.
func (m MsgCreateGame) Plain() wire.Plain {
	return wire.Plain{
		"creator": m.Creator,
		"black":   m.Black,
		"red":     m.Red,
		"wager":   wire.FormatUint64(m.Wager),
	}
}

// FromPlain sets m from a plain object.
func (m *MsgCreateGame) FromPlain(p wire.Plain) error {
	var (
		out MsgCreateGame
		err error
	)
	if out.Creator, err = wire.PlainString(p, "creator"); err != nil {
		return err
	}
	if out.Black, err = wire.PlainString(p, "black"); err != nil {
		return err
	}
	if out.Red, err = wire.PlainString(p, "red"); err != nil {
		return err
	}
	if out.Wager, err = wire.PlainUint64(p, "wager"); err != nil {
		return err
	}
	*m = out
	return nil
}

// ValidateBasic checks the three addresses.
func (m *MsgCreateGame) ValidateBasic() error {
	if err := ValidateAddress(m.Creator); err != nil {
		return fmt.Errorf("invalid creator address: %w", err)
	}
	if err := ValidateAddress(m.Black); err != nil {
		return fmt.Errorf("invalid black address: %w", err)
	}
	if err := ValidateAddress(m.Red); err != nil {
		return fmt.Errorf("invalid red address: %w", err)
	}
	return nil
}

// MsgCreateGameResponse returns the index of the created game.
type MsgCreateGameResponse struct {
	GameIndex string
}

// Marshal encodes m.
func (m MsgCreateGameResponse) Marshal() []byte {
	w := wire.NewWriter()
	w.String(1, m.GameIndex)
	return w.Bytes()
}

// Unmarshal decodes b into m.
func (m *MsgCreateGameResponse) Unmarshal(b []byte) error {
	s, err := decodeIndex(b)
	if err != nil {
		return err
	}
	*m = MsgCreateGameResponse{GameIndex: s}
	return nil
}

// MsgPlayMove moves a piece of game GameIndex.
type MsgPlayMove struct {
	Creator   string
	GameIndex string
	FromX     uint64
	FromY     uint64
	ToX       uint64
	ToY       uint64
}

func (*MsgPlayMove) isMsg() {}

// MsgName implements Msg.
func (*MsgPlayMove) MsgName() string { return "MsgPlayMove" }

// Marshal encodes m.
func (m MsgPlayMove) Marshal() []byte {
	w := wire.NewWriter()
	w.String(1, m.Creator)
	w.String(2, m.GameIndex)
	w.Uint64(3, m.FromX)
	w.Uint64(4, m.FromY)
	w.Uint64(5, m.ToX)
	w.Uint64(6, m.ToY)
	return w.Bytes()
}

// Unmarshal decodes b into m.
func (m *MsgPlayMove) Unmarshal(b []byte) error {
	var out MsgPlayMove
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case num == 1 && typ == wire.BytesType:
			out.Creator, err = r.String()
		case num == 2 && typ == wire.BytesType:
			out.GameIndex, err = r.String()
		case num == 3 && typ == wire.VarintType:
			out.FromX, err = r.Uint64()
		case num == 4 && typ == wire.VarintType:
			out.FromY, err = r.Uint64()
		case num == 5 && typ == wire.VarintType:
			out.ToX, err = r.Uint64()
		case num == 6 && typ == wire.VarintType:
			out.ToY, err = r.Uint64()
		default:
			err = r.Skip(num, typ)
		}
		if err != nil {
			return err
		}
	}
	*m = out
	return nil
}

// Plain returns the plain-object form of m.
func (m MsgPlayMove) Plain() wire.Plain {
	return wire.Plain{
		"creator":   m.Creator,
		"gameIndex": m.GameIndex,
		"fromX":     wire.FormatUint64(m.FromX),
		"fromY":     wire.FormatUint64(m.FromY),
		"toX":       wire.FormatUint64(m.ToX),
		"toY":       wire.FormatUint64(m.ToY),
	}
}

// FromPlain sets m from a plain object.
func (m *MsgPlayMove) FromPlain(p wire.Plain) error {
	var (
		out MsgPlayMove
		err error
	)
	if out.Creator, err = wire.PlainString(p, "creator"); err != nil {
		return err
	}
	if out.GameIndex, err = wire.PlainString(p, "gameIndex"); err != nil {
		return err
	}
	coords := []struct {
		key string
		dst *uint64
	}{
		{"fromX", &out.FromX},
		{"fromY", &out.FromY},
		{"toX", &out.ToX},
		{"toY", &out.ToY},
	}
	for _, c := range coords {
		if *c.dst, err = wire.PlainUint64(p, c.key); err != nil {
			return err
		}
	}
	*m = out
	return nil
}

// ValidateBasic checks the creator address and the game index.
func (m *MsgPlayMove) ValidateBasic() error {
	if err := ValidateAddress(m.Creator); err != nil {
		return fmt.Errorf("invalid creator address: %w", err)
	}
	if m.GameIndex == "" {
		return ErrEmptyGameIndex
	}
	return nil
}

// MsgPlayMoveResponse reports the captured piece, if any, and the winner.
type MsgPlayMoveResponse struct {
	CapturedX int32
	CapturedY int32
	Winner    string
}

// Marshal encodes m.
func (m MsgPlayMoveResponse) Marshal() []byte {
	w := wire.NewWriter()
	w.Int32(1, m.CapturedX)
	w.Int32(2, m.CapturedY)
	w.String(3, m.Winner)
	return w.Bytes()
}

// Unmarshal decodes b into m.
func (m *MsgPlayMoveResponse) Unmarshal(b []byte) error {
	var out MsgPlayMoveResponse
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case num == 1 && typ == wire.VarintType:
			out.CapturedX, err = r.Int32()
		case num == 2 && typ == wire.VarintType:
			out.CapturedY, err = r.Int32()
		case num == 3 && typ == wire.BytesType:
			out.Winner, err = r.String()
		default:
			err = r.Skip(num, typ)
		}
		if err != nil {
			return err
		}
	}
	*m = out
	return nil
}

// MsgRejectGame rejects a game before its creator's opponent played.
type MsgRejectGame struct {
	Creator   string
	GameIndex string
}

func (*MsgRejectGame) isMsg() {}

// MsgName implements Msg.
func (*MsgRejectGame) MsgName() string { return "MsgRejectGame" }

// Marshal encodes m.
func (m MsgRejectGame) Marshal() []byte {
	w := wire.NewWriter()
	w.String(1, m.Creator)
	w.String(2, m.GameIndex)
	return w.Bytes()
}

// Unmarshal decodes b into m.
func (m *MsgRejectGame) Unmarshal(b []byte) error {
	var out MsgRejectGame
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case num == 1 && typ == wire.BytesType:
			out.Creator, err = r.String()
		case num == 2 && typ == wire.BytesType:
			out.GameIndex, err = r.String()
		default:
			err = r.Skip(num, typ)
		}
		if err != nil {
			return err
		}
	}
	*m = out
	return nil
}

// Plain returns the plain-object form of m.
func (m MsgRejectGame) Plain() wire.Plain {
	return wire.Plain{"creator": m.Creator, "gameIndex": m.GameIndex}
}

// FromPlain sets m from a plain object.
func (m *MsgRejectGame) FromPlain(p wire.Plain) error {
	var (
		out MsgRejectGame
		err error
	)
	if out.Creator, err = wire.PlainString(p, "creator"); err != nil {
		return err
	}
	if out.GameIndex, err = wire.PlainString(p, "gameIndex"); err != nil {
		return err
	}
	*m = out
	return nil
}

// ValidateBasic checks the creator address and the game index.
func (m *MsgRejectGame) ValidateBasic() error {
	if err := ValidateAddress(m.Creator); err != nil {
		return fmt.Errorf("invalid creator address: %w", err)
	}
	if m.GameIndex == "" {
		return ErrEmptyGameIndex
	}
	return nil
}
