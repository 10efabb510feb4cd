package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a timer record does not exist.
var ErrNotFound = errors.New("timer record not found")

// TimerRecord is one completed study session. The AI fields start empty and
// are written by the feedback pipeline; everything else is immutable history.
type TimerRecord struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	GoalID       string     `json:"goal_id,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	StudySeconds int        `json:"study_seconds"`
	RestSeconds  int        `json:"rest_seconds"`
	Mode         string     `json:"mode,omitempty"`
	Summary      string     `json:"summary,omitempty"`

	AIFeedback          string     `json:"ai_feedback,omitempty"`
	AISuggestions       string     `json:"ai_suggestions,omitempty"`
	AIMotivation        string     `json:"ai_motivation,omitempty"`
	AIFeedbackCreatedAt *time.Time `json:"ai_feedback_created_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasFeedback reports whether the AI fields were ever written.
func (r TimerRecord) HasFeedback() bool {
	return r.AIFeedbackCreatedAt != nil
}

// Repository persists and retrieves timer records.
type Repository interface {
	FindByID(ctx context.Context, id string) (TimerRecord, error)
	Save(ctx context.Context, record TimerRecord) (TimerRecord, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]TimerRecord, error)
	Close() error
}
