package memory

import (
	"context"
	"sort"
	"sync"

	"checkers-client/internal/domain"
	"checkers-client/internal/storage"
)

// PlayerStore is an in-memory implementation of storage.PlayerStore.
type PlayerStore struct {
	mu      sync.RWMutex
	players map[string]domain.PlayerInfo // keyed by address
}

// NewPlayerStore creates a new in-memory player store.
func NewPlayerStore() *PlayerStore {
	return &PlayerStore{
		players: make(map[string]domain.PlayerInfo),
	}
}

// Upsert inserts or replaces players.
func (s *PlayerStore) Upsert(_ context.Context, players []domain.PlayerInfo) error {
	for _, p := range players {
		if p.Index == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range players {
		s.players[p.Index] = p
	}
	return nil
}

// Get retrieves a player by address. Returns ErrNotFound if not exists.
func (s *PlayerStore) Get(_ context.Context, index string) (*domain.PlayerInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.players[index]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

// List retrieves all players ordered by won count DESC, then index ASC.
func (s *PlayerStore) List(_ context.Context) ([]domain.PlayerInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.PlayerInfo, 0, len(s.players))
	for _, p := range s.players {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].WonCount != result[j].WonCount {
			return result[i].WonCount > result[j].WonCount
		}
		return result[i].Index < result[j].Index
	})
	return result, nil
}

var _ storage.PlayerStore = (*PlayerStore)(nil)
