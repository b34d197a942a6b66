package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"checkers-client/internal/cometbft"
	"checkers-client/internal/cometbft/stub"
	"checkers-client/internal/config"
	"checkers-client/internal/domain"
	"checkers-client/internal/query"
	"checkers-client/internal/store"
)

func TestForward(t *testing.T) {
	defer goleak.VerifyNone(t)

	blocks := make(chan cometbft.NewBlockEvent, 2)
	events := make(chan store.Event)
	var seen []int64

	blocks <- cometbft.NewBlockEvent{Height: 10}
	blocks <- cometbft.NewBlockEvent{Height: 11}
	close(blocks)

	go forward(context.Background(), blocks, events, func(ev store.Event) { seen = append(seen, ev.Height) })

	var got []int64
	for ev := range events {
		got = append(got, ev.Height)
	}
	require.Equal(t, []int64{10, 11}, got)
	require.Equal(t, []int64{10, 11}, seen)
}

func TestForwardStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	blocks := make(chan cometbft.NewBlockEvent)
	events := make(chan store.Event)

	finished := make(chan struct{})
	go func() {
		forward(ctx, blocks, events, func(store.Event) {})
		close(finished)
	}()
	cancel()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("forward did not return")
	}
	_, ok := <-events
	require.False(t, ok)
}

func TestWatched(t *testing.T) {
	subs := watched(true)
	require.Len(t, subs, 3)
	require.Equal(t, store.QueryLeaderboard, subs[0].Action)
	require.True(t, subs[1].Payload.All)
	require.False(t, watched(false)[2].Payload.All)
}

func TestCreateStoresInMemory(t *testing.T) {
	stores, cleanup, err := createStores(context.Background(), config.Config{})
	require.NoError(t, err)
	defer cleanup()
	require.NotNil(t, stores.games)
	require.NotNil(t, stores.players)
	require.NotNil(t, stores.leaderboard)
}

func TestRoutes(t *testing.T) {
	const alice = "cosmos1jmjfq0tplp9tmx4v9uemw72y4d2wa5nr3xn9d3"
	rpc := stub.NewRPCClient()
	rpc.Handle(query.Path(query.NameLeaderboard), func([]byte) ([]byte, error) {
		board := domain.Leaderboard{Winners: []domain.WinningPlayer{{PlayerAddress: alice, WonCount: 2}}}
		return domain.QueryGetLeaderboardResponse{Leaderboard: board}.Marshal(), nil
	})
	s := store.New(query.NewClient(rpc))
	_, err := s.QueryLeaderboard(context.Background(), store.Options{Subscribe: true})
	require.NoError(t, err)

	w := &watcher{store: s, started: time.Now()}
	w.setHeight(42)
	h := w.routes(prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	require.Equal(t, int64(42), status.Height)
	require.Equal(t, 1, status.CacheEntries)
	require.Equal(t, []string{"QueryLeaderboard"}, status.Subscriptions)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))
	require.Contains(t, rec.Body.String(), alice)
}
