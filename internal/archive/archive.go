// Package archive persists refreshed query results. It plugs into the store
// as a commit observer.
package archive

import (
	"context"
	"log/slog"
	"time"

	"checkers-client/internal/domain"
	"checkers-client/internal/query"
	"checkers-client/internal/storage"
	"checkers-client/internal/store"
)

// Tables named in metrics and logs.
const (
	TableGames       = "stored_games"
	TablePlayers     = "player_infos"
	TableLeaderboard = "leaderboard_snapshots"
)

// Recorder receives one observation per archive write.
// observability.Metrics satisfies it.
type Recorder interface {
	ObserveArchiveWrite(table string, err error, elapsed time.Duration)
}

// Observer writes store commits to the archive stores. Any store may be
// nil, which disables that table. Write failures are logged and recorded,
// never returned to the store.
type Observer struct {
	games       storage.GameStore
	players     storage.PlayerStore
	leaderboard storage.LeaderboardStore
	logger      *slog.Logger
	recorder    Recorder
	now         func() time.Time
}

// Option configures Observer.
type Option func(*Observer)

// WithGames enables the game archive.
func WithGames(s storage.GameStore) Option {
	return func(o *Observer) {
		o.games = s
	}
}

// WithPlayers enables the player archive.
func WithPlayers(s storage.PlayerStore) Option {
	return func(o *Observer) {
		o.players = s
	}
}

// WithLeaderboard enables leaderboard snapshots.
func WithLeaderboard(s storage.LeaderboardStore) Option {
	return func(o *Observer) {
		o.leaderboard = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Observer) {
		o.logger = l
	}
}

// WithRecorder sets the write metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Observer) {
		o.recorder = r
	}
}

// WithClock sets the clock used to timestamp leaderboard snapshots.
func WithClock(now func() time.Time) Option {
	return func(o *Observer) {
		o.now = now
	}
}

// New creates an archive observer.
func New(opts ...Option) *Observer {
	o := &Observer{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "archive")
	return o
}

var _ store.Observer = (*Observer)(nil)

// Observe archives the records carried by value.
func (o *Observer) Observe(ctx context.Context, key store.Key, value domain.Response) {
	switch v := value.(type) {
	case domain.QueryGetStoredGameResponse:
		o.saveGames(ctx, []domain.StoredGame{v.StoredGame})
	case domain.QueryAllStoredGameResponse:
		o.saveGames(ctx, v.StoredGame)
	case domain.QueryGetPlayerInfoResponse:
		o.savePlayers(ctx, []domain.PlayerInfo{v.PlayerInfo})
	case domain.QueryAllPlayerInfoResponse:
		o.savePlayers(ctx, v.PlayerInfo)
	case domain.QueryGetLeaderboardResponse:
		o.saveLeaderboard(ctx, v.Leaderboard)
	default:
		o.logger.Debug("nothing to archive", "query", key.Query)
	}
}

func (o *Observer) saveGames(ctx context.Context, games []domain.StoredGame) {
	if o.games == nil {
		return
	}
	// A missing game decodes as the zero value.
	games = filter(games, func(g domain.StoredGame) bool { return g.Index != "" })
	if len(games) == 0 {
		return
	}
	o.write(TableGames, len(games), func() error { return o.games.Upsert(ctx, games) })
}

func (o *Observer) savePlayers(ctx context.Context, players []domain.PlayerInfo) {
	if o.players == nil {
		return
	}
	players = filter(players, func(p domain.PlayerInfo) bool { return p.Index != "" })
	if len(players) == 0 {
		return
	}
	o.write(TablePlayers, len(players), func() error { return o.players.Upsert(ctx, players) })
}

func (o *Observer) saveLeaderboard(ctx context.Context, board domain.Leaderboard) {
	if o.leaderboard == nil || len(board.Winners) == 0 {
		return
	}
	snapshotMs := o.now().UnixMilli()
	o.write(TableLeaderboard, len(board.Winners), func() error {
		return o.leaderboard.InsertSnapshot(ctx, snapshotMs, board.Winners)
	})
}

func (o *Observer) write(table string, rows int, fn func() error) {
	start := time.Now()
	err := fn()
	if o.recorder != nil {
		o.recorder.ObserveArchiveWrite(table, err, time.Since(start))
	}
	if err != nil {
		o.logger.Warn("archive write failed", "table", table, "rows", rows, "error", err)
		return
	}
	o.logger.Debug("archived", "table", table, "rows", rows)
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// Backfill archives every game and player of the chain, following the
// pagination cursor to the last page. It is used once at startup so the
// archive does not wait for the first block.
func Backfill(ctx context.Context, q *query.Client, o *Observer) error {
	games, err := q.StoredGameAllPages(ctx, domain.PageRequest{})
	if err != nil {
		return err
	}
	o.saveGames(ctx, games.StoredGame)

	players, err := q.PlayerInfoAllPages(ctx, domain.PageRequest{})
	if err != nil {
		return err
	}
	o.savePlayers(ctx, players.PlayerInfo)

	board, err := q.Leaderboard(ctx)
	if err != nil {
		return err
	}
	o.saveLeaderboard(ctx, board.Leaderboard)
	return nil
}
