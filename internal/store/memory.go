package store

import (
	"context"
	"sync"

	"github.com/AngelCh415/campaign-dash/internal/models"
)

// FetchLog records every reload attempt of the source tables.
type FetchLog interface {
	Record(ctx context.Context, rec models.FetchRecord) error
	// Recent returns up to n records, newest first.
	Recent(ctx context.Context, n int) ([]models.FetchRecord, error)
	Close() error
}

const defaultMemoryCap = 256

type MemoryStore struct {
	mu   sync.RWMutex
	recs []models.FetchRecord
	cap  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cap: defaultMemoryCap}
}

func (s *MemoryStore) Record(_ context.Context, rec models.FetchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	if len(s.recs) > s.cap {
		s.recs = s.recs[len(s.recs)-s.cap:]
	}
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, n int) ([]models.FetchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.recs) {
		n = len(s.recs)
	}
	out := make([]models.FetchRecord, 0, n)
	for i := len(s.recs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.recs[i])
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
