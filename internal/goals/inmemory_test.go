package goals

import (
	"context"
	"errors"
	"testing"
)

func TestCreateAndGet(t *testing.T) {
	s := NewInMemoryStore()

	created, err := s.Create(context.Background(), StudyGoal{UserID: "u1", Title: "finish SICP", TargetHours: 2})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Fatalf("Create() did not assign an ID")
	}
	if created.Status != StatusActive {
		t.Fatalf("Status = %q, want %q", created.Status, StatusActive)
	}

	got, err := s.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "finish SICP" {
		t.Fatalf("Title = %q", got.Title)
	}
}

func TestAddProgressCompletesGoalAtTarget(t *testing.T) {
	s := NewInMemoryStore()
	created, err := s.Create(context.Background(), StudyGoal{UserID: "u1", Title: "anki backlog", TargetHours: 1})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := s.AddProgress(context.Background(), created.ID, 30); err != nil {
		t.Fatalf("AddProgress() error = %v", err)
	}
	mid, _ := s.Get(context.Background(), created.ID)
	if mid.Status != StatusActive || mid.CurrentMinutes != 30 || mid.CurrentSessions != 1 {
		t.Fatalf("after 30m: %+v", mid)
	}

	if err := s.AddProgress(context.Background(), created.ID, 30); err != nil {
		t.Fatalf("AddProgress() error = %v", err)
	}
	done, _ := s.Get(context.Background(), created.ID)
	if done.Status != StatusCompleted || done.CurrentMinutes != 60 || done.CurrentSessions != 2 {
		t.Fatalf("after 60m: %+v", done)
	}
}

func TestAddProgressUnknownGoal(t *testing.T) {
	s := NewInMemoryStore()
	if err := s.AddProgress(context.Background(), "missing", 10); !errors.Is(err, ErrNotFound) {
		t.Fatalf("AddProgress() error = %v, want ErrNotFound", err)
	}
}
