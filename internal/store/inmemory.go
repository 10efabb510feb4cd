package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository is a simple in-process record store for local/dev use.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]TimerRecord
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{records: make(map[string]TimerRecord)}
}

func (s *InMemoryRepository) FindByID(_ context.Context, id string) (TimerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return TimerRecord{}, ErrNotFound
	}
	return r, nil
}

func (s *InMemoryRepository) Save(_ context.Context, record TimerRecord) (TimerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	s.records[record.ID] = record
	return record, nil
}

func (s *InMemoryRepository) ListByUser(_ context.Context, userID string, limit int) ([]TimerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TimerRecord, 0, limit)
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryRepository) Close() error { return nil }
