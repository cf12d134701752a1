package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgxpool connection pool holding the server-persisted tab state.
type DB struct {
	*pgxpool.Pool
}

// Connect creates a connection pool and verifies it with a ping. The engine
// often races its database during container startup, so the ping is retried
// briefly before giving up.
func Connect(ctx context.Context, url string, maxConns int32) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	var pingErr error
	for attempt := 0; attempt < 5; attempt++ {
		if pingErr = pool.Ping(ctx); pingErr == nil {
			return &DB{Pool: pool}, nil
		}
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", ctx.Err())
		case <-time.After(500 * time.Millisecond):
		}
	}

	pool.Close()
	return nil, fmt.Errorf("failed to ping database: %w", pingErr)
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}
