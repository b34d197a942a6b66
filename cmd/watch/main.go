// Package main runs the checkers watcher: it keeps the leaderboard, all
// games and all players cached, refreshes them on every committed block and
// archives each refresh.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"checkers-client/internal/archive"
	"checkers-client/internal/cometbft"
	"checkers-client/internal/config"
	"checkers-client/internal/observability"
	"checkers-client/internal/query"
	"checkers-client/internal/storage"
	chstore "checkers-client/internal/storage/clickhouse"
	"checkers-client/internal/storage/memory"
	"checkers-client/internal/storage/migrations"
	pgstore "checkers-client/internal/storage/postgres"
	"checkers-client/internal/store"
)

func main() {
	var cfg config.Config
	if err := config.ParseEnv(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Flags override the environment.
	flag.StringVar(&cfg.RPCEndpoint, "rpc-endpoint", cfg.RPCEndpoint, "CometBFT RPC HTTP endpoint")
	flag.StringVar(&cfg.WSEndpoint, "ws-endpoint", cfg.WSEndpoint, "CometBFT websocket endpoint")
	flag.DurationVar(&cfg.RPCTimeout, "rpc-timeout", cfg.RPCTimeout, "Per-request RPC timeout")
	flag.IntVar(&cfg.RPCMaxRetries, "rpc-max-retries", cfg.RPCMaxRetries, "RPC retries on transport errors")
	flag.StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "PostgreSQL archive (empty for in-memory)")
	flag.StringVar(&cfg.ClickHouseDSN, "clickhouse-dsn", cfg.ClickHouseDSN, "ClickHouse leaderboard archive (empty for in-memory)")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "HTTP address for /metrics, /health and /status")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.BoolVar(&cfg.RefreshAll, "all", cfg.RefreshAll, "Follow pagination to the last page on every refresh")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", "signal", sig.String())
		cancel()

		// A second signal, or a stuck shutdown, forces exit.
		select {
		case sig := <-sigCh:
			logger.Warn("forced exit", "signal", sig.String())
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn("graceful shutdown timed out")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, logger)
	close(done)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("watch failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("checkers", reg)

	rpc := cometbft.NewHTTPClient(cfg.RPCEndpoint,
		cometbft.WithTimeout(cfg.RPCTimeout),
		cometbft.WithMaxRetries(cfg.RPCMaxRetries),
	)
	status, err := rpc.Status(ctx)
	if err != nil {
		return fmt.Errorf("node status: %w", err)
	}
	logger.Info("connected", "network", status.Network, "moniker", status.Moniker, "height", status.LatestBlockHeight)

	stores, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	client := query.NewClient(rpc, query.WithLogger(logger), query.WithRecorder(metrics))
	observer := archive.New(
		archive.WithGames(stores.games),
		archive.WithPlayers(stores.players),
		archive.WithLeaderboard(stores.leaderboard),
		archive.WithLogger(logger),
		archive.WithRecorder(metrics),
	)
	s := store.New(client,
		store.WithLogger(logger),
		store.WithRecorder(metrics),
		store.WithObserver(observer),
	)

	// Subscriptions that only read the first page leave the archive
	// incomplete, so backfill it once.
	if !cfg.RefreshAll {
		if err := archive.Backfill(ctx, client, observer); err != nil {
			logger.Warn("backfill failed", "error", err)
		}
	}
	for _, sub := range watched(cfg.RefreshAll) {
		if err := s.Subscribe(sub); err != nil {
			return err
		}
	}
	if err := s.Refresh(ctx); err != nil {
		logger.Warn("initial refresh failed", "error", err)
	}

	wsCfg := cometbft.DefaultWSConfig()
	wsCfg.Logger = logger
	ws, err := cometbft.NewWSClient(ctx, cfg.WSEndpoint, &wsCfg)
	if err != nil {
		return fmt.Errorf("connect websocket: %w", err)
	}
	defer ws.Close()

	blocks, err := ws.SubscribeNewBlocks(ctx)
	if err != nil {
		return fmt.Errorf("subscribe new blocks: %w", err)
	}

	w := &watcher{store: s, started: time.Now()}
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: w.routes(reg), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("serving http", "addr", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	events := make(chan store.Event)
	go forward(ctx, blocks, events, func(ev store.Event) {
		metrics.ObserveBlock(ev.Height)
		w.setHeight(ev.Height)
	})

	logger.Info("watching", "subscriptions", len(s.Subscriptions()), "all", cfg.RefreshAll)
	return s.Run(ctx, events)
}

// watched lists the queries kept fresh by the watcher.
func watched(all bool) []store.Subscription {
	return []store.Subscription{
		{Action: store.QueryLeaderboard},
		{Action: store.QueryStoredGameAll, Payload: store.Payload{All: all}},
		{Action: store.QueryPlayerInfoAll, Payload: store.Payload{All: all}},
	}
}

// forward copies blocks to events, calling observe for each, until ctx is
// done or blocks is closed. events is closed on return.
func forward(ctx context.Context, blocks <-chan cometbft.NewBlockEvent, events chan<- store.Event, observe func(store.Event)) {
	defer close(events)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-blocks:
			if !ok {
				return
			}
			observe(ev)
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

type archiveStores struct {
	games       storage.GameStore
	players     storage.PlayerStore
	leaderboard storage.LeaderboardStore
}

// createStores opens the archive. An empty DSN selects the in-memory store
// for the tables it would hold.
func createStores(ctx context.Context, cfg config.Config) (*archiveStores, func(), error) {
	stores := &archiveStores{
		games:       memory.NewGameStore(),
		players:     memory.NewPlayerStore(),
		leaderboard: memory.NewLeaderboardStore(),
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, err
		}
		stores.games = pgstore.NewGameStore(pool)
		stores.players = pgstore.NewPlayerStore(pool)
	}

	if cfg.ClickHouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = conn.Close() })
		stores.leaderboard = chstore.NewLeaderboardStore(conn)
	}

	return stores, cleanup, nil
}

// watcher serves the HTTP status surface.
type watcher struct {
	store   *store.Store
	started time.Time

	mu     sync.Mutex
	height int64
}

func (w *watcher) setHeight(h int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.height = h
}

func (w *watcher) routes(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.HandlerFor(g))
	mux.HandleFunc("/status", w.handleStatus)
	mux.HandleFunc("/leaderboard", w.handleLeaderboard)
	return mux
}

// StatusResponse is the JSON response of /status.
type StatusResponse struct {
	Status        string   `json:"status"`
	Uptime        string   `json:"uptime"`
	Height        int64    `json:"height"`
	CacheEntries  int      `json:"cache_entries"`
	Subscriptions []string `json:"subscriptions"`
}

func (w *watcher) handleStatus(rw http.ResponseWriter, _ *http.Request) {
	w.mu.Lock()
	height := w.height
	w.mu.Unlock()

	subs := w.store.Subscriptions()
	names := make([]string, 0, len(subs))
	for _, sub := range subs {
		names = append(names, sub.Action.String())
	}

	writeJSON(rw, StatusResponse{
		Status:        "running",
		Uptime:        time.Since(w.started).Round(time.Second).String(),
		Height:        height,
		CacheEntries:  w.store.Len(),
		Subscriptions: names,
	})
}

func (w *watcher) handleLeaderboard(rw http.ResponseWriter, _ *http.Request) {
	writeJSON(rw, w.store.GetLeaderboard().Plain())
}

func writeJSON(rw http.ResponseWriter, v any) {
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(v)
}
