package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps rate counters in PostgreSQL so the quota holds across
// service instances. Increment-and-reset is a single upsert statement, so
// concurrent submissions under the same identifier serialize on the row.
type PostgresStore struct {
	pool   *pgxpool.Pool
	window time.Duration
}

func NewPostgresStore(ctx context.Context, databaseURL string, window time.Duration) (*PostgresStore, error) {
	if window <= 0 {
		window = time.Minute
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initCounterSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool, window: window}, nil
}

func initCounterSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmt := `CREATE TABLE IF NOT EXISTS rate_counters (
		identifier TEXT PRIMARY KEY,
		window_start TIMESTAMPTZ NOT NULL,
		count INTEGER NOT NULL
	);`
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("init rate counter schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Incr(ctx context.Context, key string) (int, time.Time, error) {
	var (
		count       int
		windowStart time.Time
	)
	// Reset the window and the count together when the window has elapsed,
	// otherwise bump the count. One statement keeps it atomic per row.
	err := s.pool.QueryRow(ctx,
		`INSERT INTO rate_counters (identifier, window_start, count)
		 VALUES ($1, now(), 1)
		 ON CONFLICT (identifier) DO UPDATE SET
			count = CASE
				WHEN rate_counters.window_start <= now() - ($2 * interval '1 second') THEN 1
				ELSE rate_counters.count + 1
			END,
			window_start = CASE
				WHEN rate_counters.window_start <= now() - ($2 * interval '1 second') THEN now()
				ELSE rate_counters.window_start
			END
		 RETURNING count, window_start`,
		key,
		s.window.Seconds(),
	).Scan(&count, &windowStart)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("increment rate counter: %w", err)
	}
	return count, windowStart, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
