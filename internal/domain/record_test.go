package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"checkers-client/internal/wire"
)

const (
	alice = "cosmos1jmjfq0tplp9tmx4v9uemw72y4d2wa5nr3xn9d3"
	bob   = "cosmos1xyxs3skf3f4jfqeuv89yyaqvjc6lffavxqhc8g"
)

func sampleGame() StoredGame {
	return StoredGame{
		Index:       "1",
		Board:       "*b*b*b*b|b*b*b*b*|*b*b*b*b|********|********|r*r*r*r*|*r*r*r*r|r*r*r*r*",
		Turn:        "b",
		Black:       alice,
		Red:         bob,
		MoveCount:   3,
		BeforeIndex: NoFifoIndex,
		AfterIndex:  NoFifoIndex,
		Deadline:    "2026-10-20 10:00:00.123456789 +0000 UTC",
		Wager:       1_000_000,
	}
}

func TestWinningPlayer_Bytes(t *testing.T) {
	p := WinningPlayer{PlayerAddress: "a", WonCount: 2, DateAdded: "d"}
	require.Equal(t, []byte{0x0a, 0x01, 'a', 0x10, 0x02, 0x1a, 0x01, 'd'}, p.Marshal())

	var got WinningPlayer
	require.NoError(t, got.Unmarshal(p.Marshal()))
	require.Equal(t, p, got)
}

func TestRecords_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Record
		out  Record
	}{
		{"params", &Params{}, &Params{}},
		{"system info", &SystemInfo{NextID: 42, FifoHeadIndex: "3", FifoTailIndex: "41"}, &SystemInfo{}},
		{"stored game", func() *StoredGame { g := sampleGame(); return &g }(), &StoredGame{}},
		{"player info", &PlayerInfo{Index: alice, WonCount: 4, LostCount: 1, ForfeitedCount: 2}, &PlayerInfo{}},
		{"leaderboard", &Leaderboard{Winners: []WinningPlayer{
			{PlayerAddress: alice, WonCount: 4, DateAdded: "2026-10-19 08:00:00 +0000 UTC"},
			{PlayerAddress: bob, WonCount: 1},
		}}, &Leaderboard{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.out.Unmarshal(tt.in.Marshal()))
			require.Equal(t, tt.in, tt.out)

			fresh, ok := NewRecord(kindOf(t, tt.in))
			require.True(t, ok)
			require.NoError(t, fresh.FromPlain(tt.in.Plain()))
			require.Equal(t, tt.in, fresh)
		})
	}
}

func kindOf(t *testing.T, r Record) Kind {
	t.Helper()
	switch r.(type) {
	case *Params:
		return KindParams
	case *SystemInfo:
		return KindSystemInfo
	case *StoredGame:
		return KindStoredGame
	case *PlayerInfo:
		return KindPlayerInfo
	case *Leaderboard:
		return KindLeaderboard
	case *WinningPlayer:
		return KindWinningPlayer
	}
	t.Fatalf("unexpected record %T", r)
	return ""
}

func TestRecords_ZeroEncodesEmpty(t *testing.T) {
	require.Empty(t, StoredGame{}.Marshal())
	require.Empty(t, SystemInfo{}.Marshal())
	require.Empty(t, PlayerInfo{}.Marshal())
	require.Empty(t, Leaderboard{}.Marshal())
}

func TestStoredGame_UnknownFieldIgnored(t *testing.T) {
	g := sampleGame()
	w := wire.NewWriter()
	w.String(99, "from a newer schema")
	w.Uint64(100, 7)
	buf := append(g.Marshal(), w.Bytes()...)

	var got StoredGame
	require.NoError(t, got.Unmarshal(buf))
	require.Equal(t, g, got)
}

func TestStoredGame_WrongWireTypeSkipped(t *testing.T) {
	// field 6 (moveCount) carried as a length-delimited value
	w := wire.NewWriter()
	w.String(1, "7")
	w.String(6, "x")

	var got StoredGame
	require.NoError(t, got.Unmarshal(w.Bytes()))
	require.Equal(t, StoredGame{Index: "7"}, got)
}

func TestLeaderboard_TruncatedNestedLeavesTargetUnchanged(t *testing.T) {
	before := Leaderboard{Winners: []WinningPlayer{{PlayerAddress: alice, WonCount: 1}}}
	got := before

	// outer element of 3 bytes holding a string that claims 5 bytes
	err := got.Unmarshal([]byte{0x0a, 0x03, 0x0a, 0x05, 'a'})
	var malformedErr *wire.MalformedWireDataError
	require.ErrorAs(t, err, &malformedErr)
	require.Equal(t, 3, malformedErr.Offset)
	require.Equal(t, before, got)
}

func TestSystemInfo_Overflow(t *testing.T) {
	var s SystemInfo
	err := s.FromPlain(wire.Plain{"nextId": "99999999999999999999"})
	var overflow *wire.IntegerOverflowError
	require.ErrorAs(t, err, &overflow)
	require.Equal(t, "nextId", overflow.Field)
	require.Equal(t, SystemInfo{}, s)
}

func TestStoredGame_Plain(t *testing.T) {
	p := sampleGame().Plain()
	require.Equal(t, "3", p["moveCount"])
	require.Equal(t, "1000000", p["wager"])
	require.Equal(t, alice, p["black"])
}

func TestStoredGame_Validate(t *testing.T) {
	g := sampleGame()
	require.NoError(t, g.Validate())

	deadline, err := g.GetDeadline()
	require.NoError(t, err)
	require.Equal(t, 2026, deadline.Year())

	bad := g
	bad.Black = "cosmos1invalid"
	require.ErrorIs(t, bad.Validate(), ErrInvalidAddress)
	require.ErrorContains(t, bad.Validate(), "black address is invalid")

	bad = g
	bad.Red = ""
	require.ErrorContains(t, bad.Validate(), "red address is invalid")

	bad = g
	bad.Deadline = "tomorrow"
	require.ErrorContains(t, bad.Validate(), "deadline cannot be parsed")
}

func TestValidateAddress(t *testing.T) {
	require.NoError(t, ValidateAddress(alice))
	require.NoError(t, ValidateAddress(bob))

	for _, addr := range []string{
		"",
		"cosmos1jmjfq0tplp9tmx4v9uemw72y4d2wa5nr3xn9d4", // checksum
		"osmo1jmjfq0tplp9tmx4v9uemw72y4d2wa5nreaq4mr",   // prefix
		"cosmos1jmjfq0tplp4crgtp",                       // length
		"not an address",
	} {
		require.ErrorIs(t, ValidateAddress(addr), ErrInvalidAddress, addr)
	}
}

func TestLeaderboard_Validate(t *testing.T) {
	l := Leaderboard{Winners: []WinningPlayer{{PlayerAddress: alice}, {PlayerAddress: bob}}}
	require.NoError(t, l.Validate())

	l.Winners = append(l.Winners, WinningPlayer{PlayerAddress: alice})
	require.ErrorIs(t, l.Validate(), ErrDuplicateWinner)
}

func TestStructure(t *testing.T) {
	fields, ok := Structure(KindWinningPlayer)
	require.True(t, ok)
	require.Equal(t, []Field{
		{Name: "playerAddress", Number: 1, Kind: FieldString},
		{Name: "wonCount", Number: 2, Kind: FieldUint64},
		{Name: "dateAdded", Number: 3, Kind: FieldString},
	}, fields)

	fields[0].Name = "mutated"
	again, _ := Structure(KindWinningPlayer)
	require.Equal(t, "playerAddress", again[0].Name)

	params, ok := Structure(KindParams)
	require.True(t, ok)
	require.Empty(t, params)

	_, ok = Structure("Unknown")
	require.False(t, ok)

	for _, k := range Kinds {
		_, ok := NewRecord(k)
		require.True(t, ok, k)
	}
}
