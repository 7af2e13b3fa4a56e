package memory

import (
	"context"
	"sync"

	"quiz-player/internal/domain"
)

// ResultStore keeps the most recent finished runs in memory.
type ResultStore struct {
	limit int

	mu      sync.RWMutex
	results []domain.Summary
}

func NewResultStore(limit int) *ResultStore {
	return &ResultStore{limit: limit}
}

func (s *ResultStore) RecordResult(_ context.Context, summary domain.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, summary)
	if s.limit > 0 && len(s.results) > s.limit {
		s.results = s.results[len(s.results)-s.limit:]
	}
	return nil
}

// Recent returns up to n results, newest first. n <= 0 returns all.
func (s *ResultStore) Recent(_ context.Context, n int) ([]domain.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.results) {
		n = len(s.results)
	}
	out := make([]domain.Summary, 0, n)
	for i := len(s.results) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.results[i])
	}
	return out, nil
}
