package remote

import (
	"context"
	"sync"

	"github.com/example/music-odyssey/internal/schedule"
)

// MemoryStore keeps worksheets in process memory. Rows are copied on the
// way in and out.
type MemoryStore struct {
	mu     sync.RWMutex
	sheets map[string][]schedule.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sheets: make(map[string][]schedule.Record)}
}

func (s *MemoryStore) Read(_ context.Context, worksheet string) ([]schedule.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRows(s.sheets[worksheet]), nil
}

func (s *MemoryStore) Update(_ context.Context, worksheet string, rows []schedule.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[worksheet] = cloneRows(rows)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func cloneRows(rows []schedule.Record) []schedule.Record {
	if rows == nil {
		return nil
	}
	out := make([]schedule.Record, len(rows))
	for i, r := range rows {
		c := make(schedule.Record, len(r))
		for k, v := range r {
			c[k] = v
		}
		out[i] = c
	}
	return out
}
