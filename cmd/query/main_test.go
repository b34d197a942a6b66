package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"checkers-client/internal/cometbft/stub"
	"checkers-client/internal/domain"
	"checkers-client/internal/query"
	"checkers-client/internal/store"
)

func TestParseAction(t *testing.T) {
	a, err := parseAction("StoredGameAll")
	require.NoError(t, err)
	require.Equal(t, store.QueryStoredGameAll, a)

	a, err = parseAction("QueryLeaderboard")
	require.NoError(t, err)
	require.Equal(t, store.QueryLeaderboard, a)

	_, err = parseAction("Balance")
	require.Error(t, err)
}

func TestExecute(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Handle(query.Path(query.NamePlayerInfo), func(data []byte) ([]byte, error) {
		var req domain.QueryGetPlayerInfoRequest
		if err := req.Unmarshal(data); err != nil {
			return nil, err
		}
		return domain.QueryGetPlayerInfoResponse{
			PlayerInfo: domain.PlayerInfo{Index: req.Index, WonCount: 5},
		}.Marshal(), nil
	})
	s := store.New(query.NewClient(rpc))

	var out bytes.Buffer
	sub := store.Subscription{Action: store.QueryPlayerInfo, Payload: store.Payload{Args: store.Args{Index: "cosmos1abc"}}}
	require.NoError(t, execute(context.Background(), s, sub, &out))

	var plain map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &plain))
	info, ok := plain["playerInfo"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "cosmos1abc", info["index"])
	require.Equal(t, "5", info["wonCount"])
}

func TestExecuteError(t *testing.T) {
	s := store.New(query.NewClient(stub.NewRPCClient()))
	var out bytes.Buffer
	err := execute(context.Background(), s, store.Subscription{Action: store.QueryParams}, &out)
	require.ErrorIs(t, err, stub.ErrNotFound)
	require.Zero(t, out.Len())
}
