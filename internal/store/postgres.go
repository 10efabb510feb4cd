package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository persists timer records in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initTimerSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresRepository{pool: pool}, nil
}

func initTimerSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS timer_records (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			goal_id TEXT NOT NULL DEFAULT '',
			start_time TIMESTAMPTZ NULL,
			end_time TIMESTAMPTZ NULL,
			study_seconds INTEGER NOT NULL,
			rest_seconds INTEGER NOT NULL,
			mode TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			ai_feedback TEXT NOT NULL DEFAULT '',
			ai_suggestions TEXT NOT NULL DEFAULT '',
			ai_motivation TEXT NOT NULL DEFAULT '',
			ai_feedback_created_at TIMESTAMPTZ NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_timer_records_user_created ON timer_records (user_id, created_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init timer schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresRepository) FindByID(ctx context.Context, id string) (TimerRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, goal_id, start_time, end_time, study_seconds, rest_seconds, mode,
		        summary, ai_feedback, ai_suggestions, ai_motivation, ai_feedback_created_at,
		        created_at, updated_at
		   FROM timer_records WHERE id=$1`,
		id,
	)
	record, err := scanTimerRecord(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return TimerRecord{}, ErrNotFound
		}
		return TimerRecord{}, fmt.Errorf("get timer record: %w", err)
	}
	return record, nil
}

func (s *PostgresRepository) Save(ctx context.Context, record TimerRecord) (TimerRecord, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO timer_records (
			id, user_id, goal_id, start_time, end_time, study_seconds, rest_seconds, mode,
			summary, ai_feedback, ai_suggestions, ai_motivation, ai_feedback_created_at,
			created_at, updated_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
		)
		ON CONFLICT (id) DO UPDATE SET
			user_id=EXCLUDED.user_id,
			goal_id=EXCLUDED.goal_id,
			start_time=EXCLUDED.start_time,
			end_time=EXCLUDED.end_time,
			study_seconds=EXCLUDED.study_seconds,
			rest_seconds=EXCLUDED.rest_seconds,
			mode=EXCLUDED.mode,
			summary=EXCLUDED.summary,
			ai_feedback=EXCLUDED.ai_feedback,
			ai_suggestions=EXCLUDED.ai_suggestions,
			ai_motivation=EXCLUDED.ai_motivation,
			ai_feedback_created_at=EXCLUDED.ai_feedback_created_at,
			updated_at=EXCLUDED.updated_at`,
		record.ID,
		record.UserID,
		record.GoalID,
		record.StartTime,
		record.EndTime,
		record.StudySeconds,
		record.RestSeconds,
		record.Mode,
		record.Summary,
		record.AIFeedback,
		record.AISuggestions,
		record.AIMotivation,
		record.AIFeedbackCreatedAt,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return TimerRecord{}, fmt.Errorf("upsert timer record: %w", err)
	}
	return record, nil
}

func (s *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int) ([]TimerRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, goal_id, start_time, end_time, study_seconds, rest_seconds, mode,
		        summary, ai_feedback, ai_suggestions, ai_motivation, ai_feedback_created_at,
		        created_at, updated_at
		   FROM timer_records WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list timer records: %w", err)
	}
	defer rows.Close()

	out := make([]TimerRecord, 0, limit)
	for rows.Next() {
		record, err := scanTimerRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan timer record: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timer record rows: %w", err)
	}
	return out, nil
}

func scanTimerRecord(row pgx.Row) (TimerRecord, error) {
	var r TimerRecord
	if err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.GoalID,
		&r.StartTime,
		&r.EndTime,
		&r.StudySeconds,
		&r.RestSeconds,
		&r.Mode,
		&r.Summary,
		&r.AIFeedback,
		&r.AISuggestions,
		&r.AIMotivation,
		&r.AIFeedbackCreatedAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return TimerRecord{}, err
	}
	return r, nil
}

func (s *PostgresRepository) Close() error {
	s.pool.Close()
	return nil
}
