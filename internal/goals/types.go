package goals

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a study goal does not exist.
var ErrNotFound = errors.New("study goal not found")

// GoalStatus is the lifecycle state of a study goal.
type GoalStatus string

const (
	StatusActive    GoalStatus = "active"
	StatusCompleted GoalStatus = "completed"
)

// StudyGoal is a long-running target that completed sessions feed minutes
// into.
type StudyGoal struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Title           string     `json:"title"`
	TargetHours     int        `json:"target_hours"`
	CurrentMinutes  int        `json:"current_minutes"`
	CurrentSessions int        `json:"current_sessions"`
	Status          GoalStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Store persists study goals and accumulates session progress onto them.
type Store interface {
	Create(ctx context.Context, goal StudyGoal) (StudyGoal, error)
	Get(ctx context.Context, id string) (StudyGoal, error)
	// AddProgress adds studyMinutes and one session to the goal, marking it
	// completed once the minute total reaches the hour target.
	AddProgress(ctx context.Context, goalID string, studyMinutes int) error
	Close() error
}
