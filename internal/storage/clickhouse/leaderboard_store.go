package clickhouse

import (
	"context"
	"fmt"

	"checkers-client/internal/domain"
	"checkers-client/internal/storage"
)

// LeaderboardStore implements storage.LeaderboardStore using ClickHouse.
type LeaderboardStore struct {
	conn *Conn
}

// NewLeaderboardStore creates a new LeaderboardStore.
func NewLeaderboardStore(conn *Conn) *LeaderboardStore {
	return &LeaderboardStore{conn: conn}
}

// Compile-time interface check.
var _ storage.LeaderboardStore = (*LeaderboardStore)(nil)

// InsertSnapshot stores winners under snapshotMs in one batch.
func (s *LeaderboardStore) InsertSnapshot(ctx context.Context, snapshotMs int64, winners []domain.WinningPlayer) error {
	if snapshotMs <= 0 {
		return storage.ErrInvalidInput
	}
	if len(winners) == 0 {
		return nil
	}

	// MergeTree does not enforce uniqueness; keep snapshots append-only.
	exists, err := s.exists(ctx, snapshotMs)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO leaderboard_snapshots (
			snapshot_ms, winner_rank, player_address, won_count, date_added
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, w := range winners {
		err = batch.Append(uint64(snapshotMs), uint32(i+1), w.PlayerAddress, w.WonCount, w.DateAdded)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// Latest retrieves the most recent snapshot. Returns ErrNotFound if none exists.
func (s *LeaderboardStore) Latest(ctx context.Context) ([]storage.LeaderboardEntry, error) {
	query := `
		SELECT snapshot_ms, winner_rank, player_address, won_count, date_added
		FROM leaderboard_snapshots
		WHERE snapshot_ms = (SELECT max(snapshot_ms) FROM leaderboard_snapshots)
		ORDER BY winner_rank ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	defer rows.Close()

	entries, err := scanLeaderboardEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, storage.ErrNotFound
	}
	return entries, nil
}

// History retrieves every entry of player, ordered by snapshot ASC.
func (s *LeaderboardStore) History(ctx context.Context, player string) ([]storage.LeaderboardEntry, error) {
	query := `
		SELECT snapshot_ms, winner_rank, player_address, won_count, date_added
		FROM leaderboard_snapshots
		WHERE player_address = ?
		ORDER BY snapshot_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, player)
	if err != nil {
		return nil, fmt.Errorf("query player history: %w", err)
	}
	defer rows.Close()

	return scanLeaderboardEntries(rows)
}

// exists checks if a snapshot with the given timestamp exists.
func (s *LeaderboardStore) exists(ctx context.Context, snapshotMs int64) (bool, error) {
	query := `SELECT count(*) FROM leaderboard_snapshots WHERE snapshot_ms = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, uint64(snapshotMs)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanLeaderboardEntries(rows chRows) ([]storage.LeaderboardEntry, error) {
	var entries []storage.LeaderboardEntry

	for rows.Next() {
		var e storage.LeaderboardEntry
		var snapshotMs uint64
		var rank uint32

		err := rows.Scan(&snapshotMs, &rank, &e.PlayerAddress, &e.WonCount, &e.DateAdded)
		if err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}

		e.SnapshotMs = int64(snapshotMs)
		e.Rank = int(rank)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard rows: %w", err)
	}
	return entries, nil
}
