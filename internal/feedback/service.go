package feedback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/antoniostano/studymate/internal/observability"
	"github.com/antoniostano/studymate/internal/openai"
	"github.com/antoniostano/studymate/internal/ratelimit"
	"github.com/antoniostano/studymate/internal/reliability"
	"github.com/antoniostano/studymate/internal/store"
)

// Config bounds the pipeline's validation and retry behavior.
type Config struct {
	MinStudySeconds int
	MaxRetries      int
	RetryBaseDelay  time.Duration
}

// Service runs the feedback pipeline: validate the session, pass the
// admission window, call the model with bounded retry, parse whatever comes
// back and persist the result onto the timer record exactly once.
type Service struct {
	repo    store.Repository
	limiter *ratelimit.Limiter
	client  openai.Client
	cfg     Config
	metrics *observability.Metrics
	now     func() time.Time
}

func NewService(repo store.Repository, limiter *ratelimit.Limiter, client openai.Client, cfg Config, metrics *observability.Metrics) *Service {
	if cfg.MinStudySeconds <= 0 {
		cfg.MinStudySeconds = 120
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	return &Service{
		repo:    repo,
		limiter: limiter,
		client:  client,
		cfg:     cfg,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetFeedback generates, persists and returns AI feedback for one timer
// record. A record that already carries feedback short-circuits to the
// stored result without touching the rate limiter or the upstream API.
func (s *Service) GetFeedback(ctx context.Context, req Request) (Response, error) {
	started := s.now()

	record, err := s.repo.FindByID(ctx, req.TimerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.countOutcome("timer_not_found")
			return Response{}, errTimerNotFound(req.TimerID)
		}
		return Response{}, fmt.Errorf("load timer record: %w", err)
	}

	if record.HasFeedback() {
		s.countOutcome("already_generated")
		return s.buildResponse(record, req, record.AIFeedback, record.AISuggestions, record.AIMotivation), nil
	}

	stageStart := s.now()
	if record.StudySeconds < s.cfg.MinStudySeconds {
		s.countOutcome("too_short")
		return Response{}, errStudyTimeTooShort(record.StudySeconds, s.cfg.MinStudySeconds)
	}
	s.observeStage(observability.StageValidate, stageStart)

	stageStart = s.now()
	if !s.limiter.Allow() {
		s.countOutcome("rate_limited")
		if s.metrics != nil {
			s.metrics.RateRejections.Inc()
		}
		return Response{}, errRateLimitExceeded(s.limiter.Current(), s.limiter.Ceiling())
	}
	s.observeStage(observability.StageAdmit, stageStart)

	mode, summary := s.resolveOverrides(record, req)
	prompt := buildPrompt(record, mode, summary, req.Context.withDefaults())

	stageStart = s.now()
	raw, err := s.complete(ctx, prompt)
	if err != nil {
		s.countOutcome("ai_unavailable")
		return Response{}, err
	}
	s.observeStage(observability.StageComplete, stageStart)

	stageStart = s.now()
	result := parseResponse(raw)
	s.observeStage(observability.StageParse, stageStart)

	stageStart = s.now()
	createdAt := s.now()
	record.AIFeedback = result.Feedback
	record.AISuggestions = result.Suggestions
	record.AIMotivation = result.Motivation
	record.AIFeedbackCreatedAt = &createdAt
	if record, err = s.repo.Save(ctx, record); err != nil {
		s.countOutcome("persist_failed")
		return Response{}, fmt.Errorf("persist feedback: %w", err)
	}
	s.observeStage(observability.StagePersist, stageStart)

	s.countOutcome("generated")
	s.observeStage(observability.StageTotal, started)
	if s.metrics != nil {
		s.metrics.ObserveFeedbackLatency(s.now().Sub(started))
	}
	return s.buildResponse(record, req, result.Feedback, result.Suggestions, result.Motivation), nil
}

// GetExisting returns previously persisted feedback verbatim, rebuilding the
// summary echo from the stored record without calling the upstream API.
func (s *Service) GetExisting(ctx context.Context, timerID string) (Response, error) {
	record, err := s.repo.FindByID(ctx, timerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Response{}, errTimerNotFound(timerID)
		}
		return Response{}, fmt.Errorf("load timer record: %w", err)
	}
	if !record.HasFeedback() {
		return Response{}, errFeedbackNotGenerated(timerID)
	}
	req := Request{TimerID: timerID}
	return s.buildResponse(record, req, record.AIFeedback, record.AISuggestions, record.AIMotivation), nil
}

// complete calls the model, retrying connectivity failures with linearly
// increasing backoff. API status errors are mapped once and never retried.
func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	var raw string
	attempt := 0
	err := reliability.Do(ctx, s.cfg.MaxRetries,
		func(n int) time.Duration { return reliability.LinearBackoff(n, s.cfg.RetryBaseDelay) },
		func(err error) bool {
			var apiErr *openai.APIError
			return !errors.As(err, &apiErr)
		},
		func(ctx context.Context) error {
			attempt++
			var callErr error
			raw, callErr = s.client.Complete(ctx, systemPrompt, prompt)
			if callErr != nil {
				var apiErr *openai.APIError
				if !errors.As(callErr, &apiErr) {
					log.Printf("ai completion connectivity failure (attempt %d/%d): %v", attempt, s.cfg.MaxRetries, callErr)
					// The exhausted final attempt is a failure, not a retry.
					if s.metrics != nil && attempt < s.cfg.MaxRetries {
						s.metrics.AIRetries.Inc()
					}
				}
			}
			return callErr
		},
	)
	if err != nil {
		return "", mapCompletionError(err)
	}
	return raw, nil
}

func mapCompletionError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429:
			return newError(KindAIServiceUnavailable,
				"AI service quota exceeded, please try again later", err)
		case 401:
			return newError(KindAIServiceUnavailable,
				"AI service authentication failed, contact the administrator", err)
		default:
			return newError(KindAIServiceUnavailable,
				"AI service returned an unexpected error, please try again later", err)
		}
	}
	return newError(KindAIServiceUnavailable,
		"could not reach the AI service, check connectivity and try again later", err)
}

// resolveOverrides prefers request-supplied mode and summary, falling back to
// the stored record. The record stays the single source of truth for the
// numeric totals.
func (s *Service) resolveOverrides(record store.TimerRecord, req Request) (mode, summary string) {
	mode = req.Mode
	if mode == "" {
		mode = record.Mode
	}
	if mode == "" {
		mode = placeholder
	}
	summary = req.StudySummary
	if summary == "" {
		summary = record.Summary
	}
	if summary == "" {
		summary = placeholder
	}
	return mode, summary
}

func (s *Service) buildResponse(record store.TimerRecord, req Request, fb, sg, mv string) Response {
	mode, summary := s.resolveOverrides(record, req)
	return Response{
		SessionSummary: SessionSummary{
			StudyTimeSeconds: record.StudySeconds,
			StudyTimeMinutes: record.StudySeconds / 60,
			RestTimeSeconds:  record.RestSeconds,
			RestTimeMinutes:  record.RestSeconds / 60,
			Mode:             mode,
			Summary:          summary,
			SessionContext:   req.Context.withDefaults(),
		},
		Feedback:    fb,
		Suggestions: sg,
		Motivation:  mv,
	}
}

func (s *Service) countOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.FeedbackRequests.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) observeStage(stage string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStage(stage, s.now().Sub(start))
	}
}
