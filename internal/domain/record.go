// Package domain defines the records of the alice.checkers.checkers module
// together with their wire and plain-object codecs.
package domain

import "checkers-client/internal/wire"

// ProtoPackage is the schema package every record belongs to.
const ProtoPackage = "alice.checkers.checkers"

// Record is implemented by pointers to every record kind and envelope.
type Record interface {
	wire.Marshaler
	wire.Unmarshaler
	Plain() wire.Plain
	FromPlain(p wire.Plain) error
}

// FieldKind classifies a schema field.
type FieldKind string

// Field kinds.
const (
	FieldString   FieldKind = "string"
	FieldUint64   FieldKind = "uint64"
	FieldInt32    FieldKind = "int32"
	FieldBool     FieldKind = "bool"
	FieldBytes    FieldKind = "bytes"
	FieldMessage  FieldKind = "message"
	FieldRepeated FieldKind = "repeated"
)

// Field describes one schema field of a record kind.
type Field struct {
	Name   string
	Number wire.Number
	Kind   FieldKind
}

// Kind names one of the six stored record kinds.
type Kind string

// Record kinds.
const (
	KindParams        Kind = "Params"
	KindSystemInfo    Kind = "SystemInfo"
	KindStoredGame    Kind = "StoredGame"
	KindPlayerInfo    Kind = "PlayerInfo"
	KindLeaderboard   Kind = "Leaderboard"
	KindWinningPlayer Kind = "WinningPlayer"
)

// Kinds lists every record kind in schema order.
var Kinds = []Kind{
	KindLeaderboard,
	KindParams,
	KindPlayerInfo,
	KindStoredGame,
	KindSystemInfo,
	KindWinningPlayer,
}

var structures = map[Kind][]Field{
	KindParams: nil,
	KindSystemInfo: {
		{Name: "nextId", Number: 1, Kind: FieldUint64},
		{Name: "fifoHeadIndex", Number: 2, Kind: FieldString},
		{Name: "fifoTailIndex", Number: 3, Kind: FieldString},
	},
	KindStoredGame: {
		{Name: "index", Number: 1, Kind: FieldString},
		{Name: "board", Number: 2, Kind: FieldString},
		{Name: "turn", Number: 3, Kind: FieldString},
		{Name: "black", Number: 4, Kind: FieldString},
		{Name: "red", Number: 5, Kind: FieldString},
		{Name: "moveCount", Number: 6, Kind: FieldUint64},
		{Name: "beforeIndex", Number: 7, Kind: FieldString},
		{Name: "afterIndex", Number: 8, Kind: FieldString},
		{Name: "deadline", Number: 9, Kind: FieldString},
		{Name: "winner", Number: 10, Kind: FieldString},
		{Name: "wager", Number: 11, Kind: FieldUint64},
	},
	KindPlayerInfo: {
		{Name: "index", Number: 1, Kind: FieldString},
		{Name: "wonCount", Number: 2, Kind: FieldUint64},
		{Name: "lostCount", Number: 3, Kind: FieldUint64},
		{Name: "forfeitedCount", Number: 4, Kind: FieldUint64},
	},
	KindLeaderboard: {
		{Name: "winners", Number: 1, Kind: FieldRepeated},
	},
	KindWinningPlayer: {
		{Name: "playerAddress", Number: 1, Kind: FieldString},
		{Name: "wonCount", Number: 2, Kind: FieldUint64},
		{Name: "dateAdded", Number: 3, Kind: FieldString},
	},
}

// Structure returns the ordered field descriptors of a record kind.
func Structure(k Kind) ([]Field, bool) {
	fields, ok := structures[k]
	if !ok {
		return nil, false
	}
	return append([]Field(nil), fields...), true
}

// NewRecord returns an empty record of the given kind.
func NewRecord(k Kind) (Record, bool) {
	switch k {
	case KindParams:
		return &Params{}, true
	case KindSystemInfo:
		return &SystemInfo{}, true
	case KindStoredGame:
		return &StoredGame{}, true
	case KindPlayerInfo:
		return &PlayerInfo{}, true
	case KindLeaderboard:
		return &Leaderboard{}, true
	case KindWinningPlayer:
		return &WinningPlayer{}, true
	}
	return nil, false
}
