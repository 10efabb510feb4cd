package goals

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore holds study goals in process memory for local/dev use.
type InMemoryStore struct {
	mu    sync.RWMutex
	goals map[string]StudyGoal
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{goals: make(map[string]StudyGoal)}
}

func (s *InMemoryStore) Create(_ context.Context, goal StudyGoal) (StudyGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	if goal.Status == "" {
		goal.Status = StatusActive
	}
	goal.CreatedAt = now
	goal.UpdatedAt = now
	s.goals[goal.ID] = goal
	return goal, nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (StudyGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[id]
	if !ok {
		return StudyGoal{}, ErrNotFound
	}
	return g, nil
}

func (s *InMemoryStore) AddProgress(_ context.Context, goalID string, studyMinutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[goalID]
	if !ok {
		return ErrNotFound
	}
	g.CurrentMinutes += studyMinutes
	g.CurrentSessions++
	if g.TargetHours > 0 && g.CurrentMinutes >= g.TargetHours*60 {
		g.Status = StatusCompleted
	}
	g.UpdatedAt = time.Now().UTC()
	s.goals[goalID] = g
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
