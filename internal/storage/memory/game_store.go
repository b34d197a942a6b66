package memory

import (
	"context"
	"sort"
	"sync"

	"checkers-client/internal/domain"
	"checkers-client/internal/storage"
)

// GameStore is an in-memory implementation of storage.GameStore.
type GameStore struct {
	mu    sync.RWMutex
	games map[string]domain.StoredGame // keyed by index
}

// NewGameStore creates a new in-memory game store.
func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[string]domain.StoredGame),
	}
}

// Upsert inserts or replaces games. The batch is rejected as a whole if any
// game has an empty index.
func (s *GameStore) Upsert(_ context.Context, games []domain.StoredGame) error {
	for _, g := range games {
		if g.Index == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range games {
		s.games[g.Index] = g
	}
	return nil
}

// Get retrieves a game by index. Returns ErrNotFound if not exists.
func (s *GameStore) Get(_ context.Context, index string) (*domain.StoredGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, exists := s.games[index]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return &g, nil
}

// List retrieves all games ordered by index.
func (s *GameStore) List(_ context.Context) ([]domain.StoredGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StoredGame, 0, len(s.games))
	for _, g := range s.games {
		result = append(result, g)
	}
	sortGames(result)
	return result, nil
}

// ListByPlayer retrieves the games where player is black or red.
func (s *GameStore) ListByPlayer(_ context.Context, player string) ([]domain.StoredGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.StoredGame
	for _, g := range s.games {
		if g.Black == player || g.Red == player {
			result = append(result, g)
		}
	}
	sortGames(result)
	return result, nil
}

// sortGames orders numeric indexes by value: shorter first, then lexically.
func sortGames(games []domain.StoredGame) {
	sort.Slice(games, func(i, j int) bool {
		a, b := games[i].Index, games[j].Index
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
}

var _ storage.GameStore = (*GameStore)(nil)
