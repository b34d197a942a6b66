package memory

import (
	"context"
	"sort"
	"sync"

	"checkers-client/internal/domain"
	"checkers-client/internal/storage"
)

// LeaderboardStore is an in-memory implementation of storage.LeaderboardStore.
type LeaderboardStore struct {
	mu        sync.RWMutex
	snapshots map[int64][]storage.LeaderboardEntry // keyed by snapshot_ms
}

// NewLeaderboardStore creates a new in-memory leaderboard store.
func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{
		snapshots: make(map[int64][]storage.LeaderboardEntry),
	}
}

// InsertSnapshot stores winners under snapshotMs. Returns ErrDuplicateKey if
// a snapshot exists at snapshotMs.
func (s *LeaderboardStore) InsertSnapshot(_ context.Context, snapshotMs int64, winners []domain.WinningPlayer) error {
	if snapshotMs <= 0 {
		return storage.ErrInvalidInput
	}
	if len(winners) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.snapshots[snapshotMs]; exists {
		return storage.ErrDuplicateKey
	}

	entries := make([]storage.LeaderboardEntry, 0, len(winners))
	for i, w := range winners {
		entries = append(entries, storage.LeaderboardEntry{SnapshotMs: snapshotMs, Rank: i + 1, WinningPlayer: w})
	}
	s.snapshots[snapshotMs] = entries
	return nil
}

// Latest retrieves the most recent snapshot. Returns ErrNotFound if none exists.
func (s *LeaderboardStore) Latest(_ context.Context) ([]storage.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.snapshots) == 0 {
		return nil, storage.ErrNotFound
	}

	var latest int64
	for ms := range s.snapshots {
		if ms > latest {
			latest = ms
		}
	}
	return append([]storage.LeaderboardEntry(nil), s.snapshots[latest]...), nil
}

// History retrieves every entry of player, ordered by snapshot ASC.
func (s *LeaderboardStore) History(_ context.Context, player string) ([]storage.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []storage.LeaderboardEntry
	for _, entries := range s.snapshots {
		for _, e := range entries {
			if e.PlayerAddress == player {
				result = append(result, e)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SnapshotMs < result[j].SnapshotMs
	})
	return result, nil
}

var _ storage.LeaderboardStore = (*LeaderboardStore)(nil)
