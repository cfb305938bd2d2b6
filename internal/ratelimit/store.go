package ratelimit

import (
	"context"
	"sync"
	"time"
)

// CounterStore tracks per-identifier request counts over a fixed window.
// Incr atomically bumps the counter for key, starting a fresh window if the
// previous one has elapsed, and returns the post-increment count together
// with the start of the current window.
type CounterStore interface {
	Incr(ctx context.Context, key string) (count int, windowStart time.Time, err error)
	Close() error
}

type counter struct {
	windowStart time.Time
	count       int
}

// MemoryStore is an in-process counter store for local/dev use and for
// single-instance deployments. Window expiry is handled lazily on access;
// there is no background sweep.
type MemoryStore struct {
	mu       sync.Mutex
	window   time.Duration
	counters map[string]*counter

	now func() time.Time // test hook
}

func NewMemoryStore(window time.Duration) *MemoryStore {
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryStore{
		window:   window,
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

func (s *MemoryStore) Incr(_ context.Context, key string) (int, time.Time, error) {
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || now.Sub(c.windowStart) >= s.window {
		c = &counter{windowStart: now}
		s.counters[key] = c
	}
	c.count++
	return c.count, c.windowStart, nil
}

func (s *MemoryStore) Close() error { return nil }
