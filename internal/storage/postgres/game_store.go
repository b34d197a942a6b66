package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"checkers-client/internal/domain"
	"checkers-client/internal/storage"
)

// GameStore implements storage.GameStore using PostgreSQL.
type GameStore struct {
	pool *Pool
}

// NewGameStore creates a new GameStore.
func NewGameStore(pool *Pool) *GameStore {
	return &GameStore{pool: pool}
}

// Compile-time interface check.
var _ storage.GameStore = (*GameStore)(nil)

const gameColumns = `game_index, board, turn, black, red, move_count, before_index, after_index, deadline, winner, wager`

// Upsert inserts or replaces games in one transaction.
func (s *GameStore) Upsert(ctx context.Context, games []domain.StoredGame) error {
	if len(games) == 0 {
		return nil
	}
	for _, g := range games {
		if g.Index == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO stored_games (` + gameColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (game_index) DO UPDATE SET
			board = EXCLUDED.board,
			turn = EXCLUDED.turn,
			black = EXCLUDED.black,
			red = EXCLUDED.red,
			move_count = EXCLUDED.move_count,
			before_index = EXCLUDED.before_index,
			after_index = EXCLUDED.after_index,
			deadline = EXCLUDED.deadline,
			winner = EXCLUDED.winner,
			wager = EXCLUDED.wager,
			updated_at = now()
	`

	for _, g := range games {
		moveCount, err := toBigint("move_count", g.MoveCount)
		if err != nil {
			return err
		}
		wager, err := toBigint("wager", g.Wager)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, query,
			g.Index,
			g.Board,
			g.Turn,
			g.Black,
			g.Red,
			moveCount,
			g.BeforeIndex,
			g.AfterIndex,
			g.Deadline,
			g.Winner,
			wager,
		)
		if err != nil {
			return fmt.Errorf("upsert game %s: %w", g.Index, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Get retrieves a game by index. Returns ErrNotFound if not exists.
func (s *GameStore) Get(ctx context.Context, index string) (*domain.StoredGame, error) {
	query := `SELECT ` + gameColumns + ` FROM stored_games WHERE game_index = $1`

	g, err := scanGame(s.pool.QueryRow(ctx, query, index))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get game by index: %w", err)
	}
	return g, nil
}

// List retrieves all games ordered by index.
func (s *GameStore) List(ctx context.Context) ([]domain.StoredGame, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM stored_games
		ORDER BY length(game_index) ASC, game_index ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	return scanGames(rows)
}

// ListByPlayer retrieves the games where player is black or red.
func (s *GameStore) ListByPlayer(ctx context.Context, player string) ([]domain.StoredGame, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM stored_games
		WHERE black = $1 OR red = $1
		ORDER BY length(game_index) ASC, game_index ASC
	`

	rows, err := s.pool.Query(ctx, query, player)
	if err != nil {
		return nil, fmt.Errorf("list games by player: %w", err)
	}
	defer rows.Close()

	return scanGames(rows)
}

// scanGame scans a single row into a StoredGame.
func scanGame(row pgx.Row) (*domain.StoredGame, error) {
	var g domain.StoredGame
	var moveCount, wager int64

	err := row.Scan(
		&g.Index,
		&g.Board,
		&g.Turn,
		&g.Black,
		&g.Red,
		&moveCount,
		&g.BeforeIndex,
		&g.AfterIndex,
		&g.Deadline,
		&g.Winner,
		&wager,
	)
	if err != nil {
		return nil, err
	}

	g.MoveCount = uint64(moveCount)
	g.Wager = uint64(wager)
	return &g, nil
}

func scanGames(rows pgx.Rows) ([]domain.StoredGame, error) {
	var games []domain.StoredGame
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return games, nil
}
