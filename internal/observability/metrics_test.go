package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Recorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.ObserveQuery("StoredGame", nil, 10*time.Millisecond)
	m.ObserveQuery("StoredGame", errors.New("boom"), time.Millisecond)
	m.ObserveRefresh("QueryLeaderboard", nil)
	m.SetCacheEntries(4)
	m.ObserveBlock(120)
	m.ObserveBlock(121)
	m.ObserveBroadcast("MsgPlayMove", nil)
	m.ObserveArchiveWrite("games", errors.New("down"), time.Millisecond)

	require.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("StoredGame", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("StoredGame", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RefreshesTotal.WithLabelValues("QueryLeaderboard", "ok")))
	require.Equal(t, 4.0, testutil.ToFloat64(m.CacheEntries))
	require.Equal(t, 2.0, testutil.ToFloat64(m.BlocksReceived))
	require.Equal(t, 121.0, testutil.ToFloat64(m.LatestBlockHeight))
	require.Equal(t, 1.0, testutil.ToFloat64(m.BroadcastsTotal.WithLabelValues("MsgPlayMove", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ArchiveWritesTotal.WithLabelValues("games", "error")))
	require.Positive(t, testutil.ToFloat64(m.LastSuccessfulRefresh))
}

func TestHandlerFor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)
	m.ObserveBlock(7)

	rec := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "test_chain_latest_block_height 7"))
}
