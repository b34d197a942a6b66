// Package postgres archives games and players in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"checkers-client/internal/storage"
)

// ApplicationName is reported to the server unless the DSN sets one.
const ApplicationName = "checkers-archive"

// Pool is the pgx connection pool shared by the archive stores.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to dsn and pings the server. Pool sizing follows the
// pool_max_conns and pool_min_conns DSN parameters.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres %s/%s: %w", cfg.ConnConfig.Host, cfg.ConnConfig.Database, err)
	}
	return &Pool{Pool: pool}, nil
}

// isNotFoundError checks if error indicates no rows found.
func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// toBigint converts a chain counter to a BIGINT column value.
func toBigint(field string, v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %s %d exceeds bigint", storage.ErrInvalidInput, field, v)
	}
	return int64(v), nil
}
