package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"checkers-client/internal/domain"
	"checkers-client/internal/storage"
)

// PlayerStore implements storage.PlayerStore using PostgreSQL.
type PlayerStore struct {
	pool *Pool
}

// NewPlayerStore creates a new PlayerStore.
func NewPlayerStore(pool *Pool) *PlayerStore {
	return &PlayerStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PlayerStore = (*PlayerStore)(nil)

// Upsert inserts or replaces players in one transaction.
func (s *PlayerStore) Upsert(ctx context.Context, players []domain.PlayerInfo) error {
	if len(players) == 0 {
		return nil
	}
	for _, p := range players {
		if p.Index == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO player_infos (address, won_count, lost_count, forfeited_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO UPDATE SET
			won_count = EXCLUDED.won_count,
			lost_count = EXCLUDED.lost_count,
			forfeited_count = EXCLUDED.forfeited_count,
			updated_at = now()
	`

	for _, p := range players {
		won, err := toBigint("won_count", p.WonCount)
		if err != nil {
			return err
		}
		lost, err := toBigint("lost_count", p.LostCount)
		if err != nil {
			return err
		}
		forfeited, err := toBigint("forfeited_count", p.ForfeitedCount)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, p.Index, won, lost, forfeited); err != nil {
			return fmt.Errorf("upsert player %s: %w", p.Index, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Get retrieves a player by address. Returns ErrNotFound if not exists.
func (s *PlayerStore) Get(ctx context.Context, index string) (*domain.PlayerInfo, error) {
	query := `
		SELECT address, won_count, lost_count, forfeited_count
		FROM player_infos
		WHERE address = $1
	`

	p, err := scanPlayer(s.pool.QueryRow(ctx, query, index))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get player by address: %w", err)
	}
	return p, nil
}

// List retrieves all players ordered by won count DESC, then address ASC.
func (s *PlayerStore) List(ctx context.Context) ([]domain.PlayerInfo, error) {
	query := `
		SELECT address, won_count, lost_count, forfeited_count
		FROM player_infos
		ORDER BY won_count DESC, address ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []domain.PlayerInfo
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}

// scanPlayer scans a single row into a PlayerInfo.
func scanPlayer(row pgx.Row) (*domain.PlayerInfo, error) {
	var p domain.PlayerInfo
	var won, lost, forfeited int64

	if err := row.Scan(&p.Index, &won, &lost, &forfeited); err != nil {
		return nil, err
	}

	p.WonCount = uint64(won)
	p.LostCount = uint64(lost)
	p.ForfeitedCount = uint64(forfeited)
	return &p, nil
}
