package ratelimit

import (
	"context"
	"strings"
	"time"
)

// NewCounterStore creates a postgres-backed counter store when configured,
// otherwise in-memory.
func NewCounterStore(ctx context.Context, databaseURL string, window time.Duration) (CounterStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewMemoryStore(window), nil
	}
	return NewPostgresStore(ctx, databaseURL, window)
}
