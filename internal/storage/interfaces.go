package storage

import (
	"context"

	"checkers-client/internal/domain"
)

// GameStore provides access to stored_games storage. Games are keyed by
// index and replaced on every upsert.
type GameStore interface {
	// Upsert inserts or replaces games. Returns ErrInvalidInput for an empty index.
	Upsert(ctx context.Context, games []domain.StoredGame) error

	// Get retrieves a game by index. Returns ErrNotFound if not exists.
	Get(ctx context.Context, index string) (*domain.StoredGame, error)

	// List retrieves all games ordered by index.
	List(ctx context.Context) ([]domain.StoredGame, error)

	// ListByPlayer retrieves the games where player is black or red, ordered by index.
	ListByPlayer(ctx context.Context, player string) ([]domain.StoredGame, error)
}

// PlayerStore provides access to player_infos storage. Players are keyed by
// address and replaced on every upsert.
type PlayerStore interface {
	// Upsert inserts or replaces players. Returns ErrInvalidInput for an empty index.
	Upsert(ctx context.Context, players []domain.PlayerInfo) error

	// Get retrieves a player by address. Returns ErrNotFound if not exists.
	Get(ctx context.Context, index string) (*domain.PlayerInfo, error)

	// List retrieves all players ordered by won count DESC, then index ASC.
	List(ctx context.Context) ([]domain.PlayerInfo, error)
}

// LeaderboardEntry is one winner row of a leaderboard snapshot.
type LeaderboardEntry struct {
	SnapshotMs int64
	Rank       int
	domain.WinningPlayer
}

// LeaderboardStore provides access to leaderboard_snapshots storage.
// Snapshots are append-only.
type LeaderboardStore interface {
	// InsertSnapshot stores the winners in rank order under snapshotMs.
	// An empty winner list stores nothing. Returns ErrDuplicateKey if a
	// snapshot exists at snapshotMs.
	InsertSnapshot(ctx context.Context, snapshotMs int64, winners []domain.WinningPlayer) error

	// Latest retrieves the most recent snapshot. Returns ErrNotFound if none exists.
	Latest(ctx context.Context) ([]LeaderboardEntry, error)

	// History retrieves every entry of player, ordered by snapshot ASC.
	History(ctx context.Context, player string) ([]LeaderboardEntry, error)
}
