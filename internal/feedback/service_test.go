package feedback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/antoniostano/studymate/internal/observability"
	"github.com/antoniostano/studymate/internal/openai"
	"github.com/antoniostano/studymate/internal/ratelimit"
	"github.com/antoniostano/studymate/internal/store"
)

type fakeAIClient struct {
	mu        sync.Mutex
	callTimes []time.Time
	failures  []error
	text      string
}

func (c *fakeAIClient) Complete(_ context.Context, _, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callTimes = append(c.callTimes, time.Now())
	if n := len(c.callTimes) - 1; n < len(c.failures) {
		return "", c.failures[n]
	}
	return c.text, nil
}

func (c *fakeAIClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.callTimes)
}

func newTestService(t *testing.T, client openai.Client, ceiling int) (*Service, store.Repository, *ratelimit.Limiter) {
	t.Helper()
	repo := store.NewInMemoryRepository()
	limiter := ratelimit.NewLimiter(ceiling, time.Second, nil)
	svc := NewService(repo, limiter, client, Config{
		MinStudySeconds: 120,
		MaxRetries:      3,
		RetryBaseDelay:  20 * time.Millisecond,
	}, nil)
	return svc, repo, limiter
}

func seedRecord(t *testing.T, repo store.Repository, studySeconds int) store.TimerRecord {
	t.Helper()
	record, err := repo.Save(context.Background(), store.TimerRecord{
		UserID:       "u1",
		StudySeconds: studySeconds,
		RestSeconds:  300,
		Mode:         "STUDY",
		Summary:      "reviewed graph algorithms",
	})
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return record
}

func TestGetFeedbackHappyPath(t *testing.T) {
	client := &fakeAIClient{text: `{"feedback": "great focus", "suggestions": "shorter breaks", "motivation": "keep at it"}`}
	svc, repo, _ := newTestService(t, client, 10)
	record := seedRecord(t, repo, 1500)

	res, err := svc.GetFeedback(context.Background(), Request{
		TimerID: record.ID,
		Context: SessionContext{StudyTopic: "algorithms"},
	})
	if err != nil {
		t.Fatalf("GetFeedback() error = %v", err)
	}
	if res.Feedback != "great focus" || res.Suggestions != "shorter breaks" || res.Motivation != "keep at it" {
		t.Fatalf("unexpected response: %+v", res)
	}
	if res.SessionSummary.StudyTimeMinutes != 25 || res.SessionSummary.RestTimeMinutes != 5 {
		t.Fatalf("summary minutes = (%d, %d), want (25, 5)", res.SessionSummary.StudyTimeMinutes, res.SessionSummary.RestTimeMinutes)
	}
	if res.SessionSummary.StudyTopic != "algorithms" {
		t.Fatalf("StudyTopic = %q", res.SessionSummary.StudyTopic)
	}
	if res.SessionSummary.Mood != "not provided" {
		t.Fatalf("absent context field = %q, want placeholder", res.SessionSummary.Mood)
	}

	saved, err := repo.FindByID(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if !saved.HasFeedback() || saved.AIFeedback != "great focus" {
		t.Fatalf("feedback not persisted: %+v", saved)
	}
}

func TestGetFeedbackTooShortSkipsLimiterAndAPI(t *testing.T) {
	client := &fakeAIClient{text: "unused"}
	svc, repo, limiter := newTestService(t, client, 10)
	record := seedRecord(t, repo, 100)

	_, err := svc.GetFeedback(context.Background(), Request{TimerID: record.ID})
	if KindOf(err) != KindStudyTimeTooShort {
		t.Fatalf("error kind = %q, want %q", KindOf(err), KindStudyTimeTooShort)
	}
	if client.calls() != 0 {
		t.Fatalf("API calls = %d, want 0", client.calls())
	}
	if limiter.Current() != 0 {
		t.Fatalf("limiter admissions = %d, want 0", limiter.Current())
	}
}

func TestGetFeedbackUnknownRecord(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeAIClient{}, 10)
	_, err := svc.GetFeedback(context.Background(), Request{TimerID: "missing"})
	if KindOf(err) != KindTimerNotFound {
		t.Fatalf("error kind = %q, want %q", KindOf(err), KindTimerNotFound)
	}
}

func TestGetFeedbackRateLimited(t *testing.T) {
	client := &fakeAIClient{text: "unused"}
	svc, repo, limiter := newTestService(t, client, 1)
	record := seedRecord(t, repo, 1500)
	if !limiter.Allow() {
		t.Fatalf("seed admission failed")
	}

	_, err := svc.GetFeedback(context.Background(), Request{TimerID: record.ID})
	if KindOf(err) != KindRateLimitExceeded {
		t.Fatalf("error kind = %q, want %q", KindOf(err), KindRateLimitExceeded)
	}
	if client.calls() != 0 {
		t.Fatalf("API calls = %d, want 0", client.calls())
	}
}

func TestGetFeedbackRetriesConnectivityFailures(t *testing.T) {
	client := &fakeAIClient{
		failures: []error{errors.New("connection refused"), errors.New("connection reset")},
		text:     `{"feedback": "f", "suggestions": "s", "motivation": "m"}`,
	}
	svc, repo, _ := newTestService(t, client, 10)
	record := seedRecord(t, repo, 1500)

	res, err := svc.GetFeedback(context.Background(), Request{TimerID: record.ID})
	if err != nil {
		t.Fatalf("GetFeedback() error = %v", err)
	}
	if res.Feedback != "f" {
		t.Fatalf("Feedback = %q", res.Feedback)
	}
	if client.calls() != 3 {
		t.Fatalf("API calls = %d, want 3", client.calls())
	}

	gap1 := client.callTimes[1].Sub(client.callTimes[0])
	gap2 := client.callTimes[2].Sub(client.callTimes[1])
	if gap2 <= gap1 {
		t.Fatalf("backoff not increasing: gap1=%v gap2=%v", gap1, gap2)
	}
}

func TestGetFeedbackExhaustedRetries(t *testing.T) {
	down := errors.New("connection refused")
	client := &fakeAIClient{failures: []error{down, down, down}}
	svc, repo, _ := newTestService(t, client, 10)
	record := seedRecord(t, repo, 1500)

	_, err := svc.GetFeedback(context.Background(), Request{TimerID: record.ID})
	if KindOf(err) != KindAIServiceUnavailable {
		t.Fatalf("error kind = %q, want %q", KindOf(err), KindAIServiceUnavailable)
	}
	if client.calls() != 3 {
		t.Fatalf("API calls = %d, want 3", client.calls())
	}
}

func TestRetryCounterExcludesFinalFailure(t *testing.T) {
	down := errors.New("connection refused")
	client := &fakeAIClient{failures: []error{down, down, down}}
	repo := store.NewInMemoryRepository()
	limiter := ratelimit.NewLimiter(10, time.Second, nil)
	metrics := observability.NewMetrics("test_feedback_retries_" + time.Now().Format("150405") + "_" + time.Now().Format("000000000"))
	svc := NewService(repo, limiter, client, Config{
		MinStudySeconds: 120,
		MaxRetries:      3,
		RetryBaseDelay:  time.Millisecond,
	}, metrics)
	record := seedRecord(t, repo, 1500)

	if _, err := svc.GetFeedback(context.Background(), Request{TimerID: record.ID}); KindOf(err) != KindAIServiceUnavailable {
		t.Fatalf("error kind = %q, want %q", KindOf(err), KindAIServiceUnavailable)
	}
	if client.calls() != 3 {
		t.Fatalf("API calls = %d, want 3", client.calls())
	}
	// Three failed attempts mean two retries; the exhausted last attempt
	// must not count.
	if got := testutil.ToFloat64(metrics.AIRetries); got != 2 {
		t.Fatalf("retry counter = %v, want 2", got)
	}
}

func TestGetFeedbackAPIErrorNotRetried(t *testing.T) {
	client := &fakeAIClient{failures: []error{&openai.APIError{StatusCode: 429, Body: "quota"}}}
	svc, repo, _ := newTestService(t, client, 10)
	record := seedRecord(t, repo, 1500)

	_, err := svc.GetFeedback(context.Background(), Request{TimerID: record.ID})
	if KindOf(err) != KindAIServiceUnavailable {
		t.Fatalf("error kind = %q, want %q", KindOf(err), KindAIServiceUnavailable)
	}
	if client.calls() != 1 {
		t.Fatalf("API calls = %d, want 1 (status errors are not retried)", client.calls())
	}
}

func TestGetFeedbackMalformedOutputDegradesToRawText(t *testing.T) {
	raw := "The session went fine overall and the pace was sustainable."
	client := &fakeAIClient{text: raw}
	svc, repo, _ := newTestService(t, client, 10)
	record := seedRecord(t, repo, 1500)

	res, err := svc.GetFeedback(context.Background(), Request{TimerID: record.ID})
	if err != nil {
		t.Fatalf("GetFeedback() error = %v", err)
	}
	if res.Feedback != raw {
		t.Fatalf("Feedback = %q, want raw text", res.Feedback)
	}
	if res.Suggestions == "" || res.Motivation == "" {
		t.Fatalf("fallback fields empty: %+v", res)
	}
}

func TestGetExistingBeforeAndAfterGeneration(t *testing.T) {
	client := &fakeAIClient{text: `{"feedback": "f1", "suggestions": "s1", "motivation": "m1"}`}
	svc, repo, _ := newTestService(t, client, 10)
	record := seedRecord(t, repo, 1500)

	if _, err := svc.GetExisting(context.Background(), record.ID); KindOf(err) != KindFeedbackNotGenerated {
		t.Fatalf("error kind = %q, want %q", KindOf(err), KindFeedbackNotGenerated)
	}

	if _, err := svc.GetFeedback(context.Background(), Request{TimerID: record.ID}); err != nil {
		t.Fatalf("GetFeedback() error = %v", err)
	}

	res, err := svc.GetExisting(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("GetExisting() error = %v", err)
	}
	if res.Feedback != "f1" || res.Suggestions != "s1" || res.Motivation != "m1" {
		t.Fatalf("unexpected stored feedback: %+v", res)
	}
	if res.SessionSummary.Summary != "reviewed graph algorithms" {
		t.Fatalf("summary echo = %q", res.SessionSummary.Summary)
	}
	if client.calls() != 1 {
		t.Fatalf("API calls = %d, want 1 (read path must not call the API)", client.calls())
	}
}

func TestGetFeedbackIsIdempotentOncePersisted(t *testing.T) {
	client := &fakeAIClient{text: `{"feedback": "f1", "suggestions": "s1", "motivation": "m1"}`}
	svc, repo, limiter := newTestService(t, client, 10)
	record := seedRecord(t, repo, 1500)

	if _, err := svc.GetFeedback(context.Background(), Request{TimerID: record.ID}); err != nil {
		t.Fatalf("first GetFeedback() error = %v", err)
	}
	admitted := limiter.Current()

	res, err := svc.GetFeedback(context.Background(), Request{TimerID: record.ID})
	if err != nil {
		t.Fatalf("second GetFeedback() error = %v", err)
	}
	if res.Feedback != "f1" {
		t.Fatalf("second call Feedback = %q, want stored value", res.Feedback)
	}
	if client.calls() != 1 {
		t.Fatalf("API calls = %d, want 1 (second call must short-circuit)", client.calls())
	}
	if limiter.Current() != admitted {
		t.Fatalf("limiter admissions changed on short-circuit: %d -> %d", admitted, limiter.Current())
	}
}
