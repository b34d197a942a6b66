package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"checkers-client/internal/wire"
)

func TestQueryAllStoredGame_RoundTrip(t *testing.T) {
	req := QueryAllStoredGameRequest{Pagination: PageRequest{Key: []byte("C1"), Limit: 2, CountTotal: true}}
	var gotReq QueryAllStoredGameRequest
	require.NoError(t, gotReq.Unmarshal(req.Marshal()))
	require.True(t, req.Pagination.Equal(gotReq.Pagination))

	resp := QueryAllStoredGameResponse{
		StoredGame: []StoredGame{sampleGame(), {Index: "2"}},
		Pagination: PageResponse{NextKey: []byte("C2"), Total: 6},
	}
	var got QueryAllStoredGameResponse
	require.NoError(t, got.Unmarshal(resp.Marshal()))
	require.Equal(t, resp, got)
	require.Equal(t, []byte("C2"), got.NextKey())
}

func TestQueryAllStoredGame_EmptyElementsSurvive(t *testing.T) {
	resp := QueryAllStoredGameResponse{StoredGame: []StoredGame{{}, {}}}
	var got QueryAllStoredGameResponse
	require.NoError(t, got.Unmarshal(resp.Marshal()))
	require.Len(t, got.StoredGame, 2)
	require.Empty(t, got.NextKey())
}

func TestQueryAllPlayerInfo_MergePage(t *testing.T) {
	first := QueryAllPlayerInfoResponse{
		PlayerInfo: []PlayerInfo{{Index: alice}},
		Pagination: PageResponse{NextKey: []byte("C1"), Total: 2},
	}
	second := QueryAllPlayerInfoResponse{
		PlayerInfo: []PlayerInfo{{Index: bob}},
	}
	merged := first.MergePage(second)
	require.Equal(t, []PlayerInfo{{Index: alice}, {Index: bob}}, merged.PlayerInfo)
	require.Empty(t, merged.NextKey())
	require.Len(t, first.PlayerInfo, 1)
}

func TestQueryGetStoredGame_Envelopes(t *testing.T) {
	req := QueryGetStoredGameRequest{Index: "17"}
	require.Equal(t, []byte{0x0a, 0x02, '1', '7'}, req.Marshal())

	resp := QueryGetStoredGameResponse{StoredGame: sampleGame()}
	var got QueryGetStoredGameResponse
	require.NoError(t, got.Unmarshal(resp.Marshal()))
	require.Equal(t, resp, got)

	p := got.Plain()
	require.Contains(t, p, "storedGame")
}

func TestQueryCanPlayMove_RoundTrip(t *testing.T) {
	req := QueryCanPlayMoveRequest{GameIndex: "1", Player: "b", FromX: 1, FromY: 2, ToX: 2, ToY: 3}
	var gotReq QueryCanPlayMoveRequest
	require.NoError(t, gotReq.Unmarshal(req.Marshal()))
	require.Equal(t, req, gotReq)

	resp := QueryCanPlayMoveResponse{Possible: false, Reason: "player tried to play out of turn"}
	var got QueryCanPlayMoveResponse
	require.NoError(t, got.Unmarshal(resp.Marshal()))
	require.Equal(t, resp, got)
}

func TestQuerySingletons_PlainKeys(t *testing.T) {
	require.Contains(t, QueryGetSystemInfoResponse{}.Plain(), "SystemInfo")
	require.Contains(t, QueryGetLeaderboardResponse{}.Plain(), "Leaderboard")
	require.Contains(t, QueryGetPlayerInfoResponse{}.Plain(), "playerInfo")
	require.Contains(t, QueryParamsResponse{}.Plain(), "params")
}

func TestQueryGetLeaderboard_TruncatedKeepsTarget(t *testing.T) {
	before := QueryGetLeaderboardResponse{Leaderboard: Leaderboard{Winners: []WinningPlayer{{PlayerAddress: bob}}}}
	got := before
	err := got.Unmarshal([]byte{0x0a, 0x04, 0x0a, 0x02, 0x0a})
	var malformedErr *wire.MalformedWireDataError
	require.ErrorAs(t, err, &malformedErr)
	require.Equal(t, before, got)
}

func TestPageRequest_Plain(t *testing.T) {
	p := PageRequest{Key: []byte{0xde, 0xad}, Offset: 5, Limit: 10, Reverse: true}
	var got PageRequest
	require.NoError(t, got.FromPlain(p.Plain()))
	require.True(t, p.Equal(got))
	require.False(t, got.IsZero())
	require.True(t, PageRequest{}.IsZero())
}
