package report

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process report store for local/dev use.
type InMemoryStore struct {
	mu      sync.RWMutex
	reports []Report
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Save(_ context.Context, r Report) (Report, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return r, nil
}

func (s *InMemoryStore) Recent(_ context.Context, limit int) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.reports) {
		limit = len(s.reports)
	}
	out := make([]Report, 0, limit)
	for i := len(s.reports) - 1; i >= len(s.reports)-limit; i-- {
		out = append(out, s.reports[i])
	}
	return out, nil
}

func (s *InMemoryStore) ByContact(_ context.Context, maskedContact string) ([]Report, error) {
	if maskedContact == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Report
	for _, r := range s.reports {
		if r.MaskedContact == maskedContact {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
