package goals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists study goals in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initGoalSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initGoalSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS study_goals (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			target_hours INTEGER NOT NULL DEFAULT 0,
			current_minutes INTEGER NOT NULL DEFAULT 0,
			current_sessions INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_study_goals_user ON study_goals (user_id, created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init goal schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, goal StudyGoal) (StudyGoal, error) {
	now := time.Now().UTC()
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	if goal.Status == "" {
		goal.Status = StatusActive
	}
	goal.CreatedAt = now
	goal.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO study_goals (
			id, user_id, title, target_hours, current_minutes, current_sessions, status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		goal.ID, goal.UserID, goal.Title, goal.TargetHours,
		goal.CurrentMinutes, goal.CurrentSessions, string(goal.Status),
		goal.CreatedAt, goal.UpdatedAt,
	)
	if err != nil {
		return StudyGoal{}, fmt.Errorf("insert study goal: %w", err)
	}
	return goal, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (StudyGoal, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, title, target_hours, current_minutes, current_sessions, status, created_at, updated_at
		   FROM study_goals WHERE id=$1`,
		id,
	)
	var (
		g      StudyGoal
		status string
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.TargetHours, &g.CurrentMinutes,
		&g.CurrentSessions, &status, &g.CreatedAt, &g.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return StudyGoal{}, ErrNotFound
		}
		return StudyGoal{}, fmt.Errorf("get study goal: %w", err)
	}
	g.Status = GoalStatus(status)
	return g, nil
}

func (s *PostgresStore) AddProgress(ctx context.Context, goalID string, studyMinutes int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE study_goals
		    SET current_minutes = current_minutes + $2,
		        current_sessions = current_sessions + 1,
		        status = CASE
		            WHEN target_hours > 0 AND current_minutes + $2 >= target_hours * 60 THEN 'completed'
		            ELSE status
		        END,
		        updated_at = $3
		  WHERE id = $1`,
		goalID, studyMinutes, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update goal progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
