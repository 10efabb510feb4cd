package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/antoniostano/studymate/internal/config"
	"github.com/antoniostano/studymate/internal/feedback"
	"github.com/antoniostano/studymate/internal/goals"
	"github.com/antoniostano/studymate/internal/observability"
	"github.com/antoniostano/studymate/internal/ratelimit"
	"github.com/antoniostano/studymate/internal/store"
	"github.com/antoniostano/studymate/internal/timer"
)

type stubAIClient struct {
	text string
}

func (c *stubAIClient) Complete(context.Context, string, string) (string, error) {
	return c.text, nil
}

type testEnv struct {
	ts    *httptest.Server
	repo  store.Repository
	goals goals.Store
}

func newTestServer(t *testing.T, name, aiText string) testEnv {
	t.Helper()
	cfg := config.Config{
		FeedbackMinStudySeconds: 120,
		RateLimitPerMinute:      10,
	}
	repo := store.NewInMemoryRepository()
	goalStore := goals.NewInMemoryStore()
	metrics := observability.NewMetrics("test_httpapi_" + name + "_" + time.Now().Format("150405") + "_" + time.Now().Format("000000000"))
	limiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Second, nil)
	feedbackSvc := feedback.NewService(repo, limiter, &stubAIClient{text: aiText}, feedback.Config{
		MinStudySeconds: cfg.FeedbackMinStudySeconds,
		MaxRetries:      3,
		RetryBaseDelay:  time.Millisecond,
	}, metrics)
	srv := New(cfg, timer.NewEngine(timer.SystemClock()), repo, goalStore, feedbackSvc, metrics)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return testEnv{ts: ts, repo: repo, goals: goalStore}
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, _ := json.Marshal(payload)
	res, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	return res
}

func decodeBody(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	defer res.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestTimerLifecycle(t *testing.T) {
	env := newTestServer(t, "timer", "")

	res := postJSON(t, env.ts.URL+"/v1/timer/start", map[string]any{
		"user_id":       "user-1",
		"study_minutes": 25,
		"break_minutes": 5,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	started := decodeBody(t, res)
	if started["run_state"] != "STARTED" || started["mode"] != "STUDY" {
		t.Fatalf("start response = %+v", started)
	}

	statusRes, err := http.Get(env.ts.URL + "/v1/timer/status?user_id=user-1")
	if err != nil {
		t.Fatalf("GET status error = %v", err)
	}
	if statusRes.StatusCode != http.StatusOK {
		t.Fatalf("status status = %d, want %d", statusRes.StatusCode, http.StatusOK)
	}
	status := decodeBody(t, statusRes)
	if status["current_duration_seconds"] != float64(25*60) {
		t.Fatalf("current_duration_seconds = %v, want %v", status["current_duration_seconds"], 25*60)
	}

	pauseRes := postJSON(t, env.ts.URL+"/v1/timer/pause", map[string]any{"user_id": "user-1"})
	if pauseRes.StatusCode != http.StatusOK {
		t.Fatalf("pause status = %d, want %d", pauseRes.StatusCode, http.StatusOK)
	}
	paused := decodeBody(t, pauseRes)
	if paused["run_state"] != "PAUSED" {
		t.Fatalf("pause response = %+v", paused)
	}

	stopRes := postJSON(t, env.ts.URL+"/v1/timer/stop", map[string]any{"user_id": "user-1"})
	if stopRes.StatusCode != http.StatusOK {
		t.Fatalf("stop status = %d, want %d", stopRes.StatusCode, http.StatusOK)
	}
	stopRes.Body.Close()

	again := postJSON(t, env.ts.URL+"/v1/timer/stop", map[string]any{"user_id": "user-1"})
	if again.StatusCode != http.StatusConflict {
		t.Fatalf("second stop status = %d, want %d", again.StatusCode, http.StatusConflict)
	}
	body := decodeBody(t, again)
	if body["code"] != "no_active_session" {
		t.Fatalf("second stop code = %v, want no_active_session", body["code"])
	}
}

func TestTimerStartValidation(t *testing.T) {
	env := newTestServer(t, "validation", "")

	res := postJSON(t, env.ts.URL+"/v1/timer/start", map[string]any{
		"study_minutes": 25,
		"break_minutes": 5,
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing user_id status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	res.Body.Close()

	res = postJSON(t, env.ts.URL+"/v1/timer/start", map[string]any{
		"user_id":       "user-1",
		"study_minutes": 0,
		"break_minutes": 5,
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("zero study_minutes status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	res.Body.Close()
}

func TestSaveRecordAndList(t *testing.T) {
	env := newTestServer(t, "records", "")

	override := 1500
	res := postJSON(t, env.ts.URL+"/v1/timer/records", map[string]any{
		"user_id":                "user-1",
		"study_minutes":          20,
		"rest_minutes":           4,
		"study_seconds_override": override,
		"mode":                   "STUDY",
		"summary":                "reviewed flashcards",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("save status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	saved := decodeBody(t, res)
	if saved["study_seconds"] != float64(override) {
		t.Fatalf("study_seconds = %v, want %d (client override wins)", saved["study_seconds"], override)
	}
	if saved["rest_seconds"] != float64(4*60) {
		t.Fatalf("rest_seconds = %v, want %d", saved["rest_seconds"], 4*60)
	}
	if saved["id"] == "" || saved["id"] == nil {
		t.Fatalf("missing record id: %+v", saved)
	}

	listRes, err := http.Get(env.ts.URL + "/v1/timer/records?user_id=user-1")
	if err != nil {
		t.Fatalf("GET records error = %v", err)
	}
	if listRes.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want %d", listRes.StatusCode, http.StatusOK)
	}
	listed := decodeBody(t, listRes)
	records, ok := listed["records"].([]any)
	if !ok || len(records) != 1 {
		t.Fatalf("records = %+v, want one entry", listed["records"])
	}
}

func TestSaveRecordUpdatesGoalProgress(t *testing.T) {
	env := newTestServer(t, "goals", "")

	goalRes := postJSON(t, env.ts.URL+"/v1/goals", map[string]any{
		"user_id":      "user-1",
		"title":        "read the dragon book",
		"target_hours": 10,
	})
	if goalRes.StatusCode != http.StatusCreated {
		t.Fatalf("create goal status = %d, want %d", goalRes.StatusCode, http.StatusCreated)
	}
	created := decodeBody(t, goalRes)
	goalID, _ := created["id"].(string)
	if goalID == "" {
		t.Fatalf("missing goal id: %+v", created)
	}

	res := postJSON(t, env.ts.URL+"/v1/timer/records", map[string]any{
		"user_id":       "user-1",
		"goal_id":       goalID,
		"study_minutes": 30,
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("save status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	res.Body.Close()

	goal, err := env.goals.Get(context.Background(), goalID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if goal.CurrentMinutes != 30 || goal.CurrentSessions != 1 {
		t.Fatalf("goal progress = (%d min, %d sessions), want (30, 1)", goal.CurrentMinutes, goal.CurrentSessions)
	}

	missing := postJSON(t, env.ts.URL+"/v1/timer/records", map[string]any{
		"user_id":       "user-1",
		"goal_id":       "no-such-goal",
		"study_minutes": 30,
	})
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown goal status = %d, want %d", missing.StatusCode, http.StatusNotFound)
	}
	body := decodeBody(t, missing)
	if body["code"] != "goal_not_found" {
		t.Fatalf("unknown goal code = %v, want goal_not_found", body["code"])
	}

	// The rejected save must not leave a record behind; only the earlier
	// successful one may exist.
	records, err := env.repo.ListByUser(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records after goal_not_found = %d, want 1", len(records))
	}
}

func TestFeedbackEndpoints(t *testing.T) {
	env := newTestServer(t, "feedback", `{"feedback": "solid block", "suggestions": "hydrate", "motivation": "onward"}`)

	record, err := env.repo.Save(context.Background(), store.TimerRecord{
		UserID:       "user-1",
		StudySeconds: 1500,
		RestSeconds:  300,
		Mode:         "STUDY",
	})
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}
	short, err := env.repo.Save(context.Background(), store.TimerRecord{
		UserID:       "user-1",
		StudySeconds: 60,
	})
	if err != nil {
		t.Fatalf("seed short record: %v", err)
	}

	before, getErr := http.Get(env.ts.URL + "/v1/feedback/" + record.ID)
	if getErr != nil {
		t.Fatalf("GET feedback error = %v", getErr)
	}
	if before.StatusCode != http.StatusNotFound {
		t.Fatalf("pre-generation GET status = %d, want %d", before.StatusCode, http.StatusNotFound)
	}
	before.Body.Close()

	res := postJSON(t, env.ts.URL+"/v1/feedback", map[string]any{
		"timer_id": record.ID,
		"context":  map[string]string{"study_topic": "compilers"},
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	generated := decodeBody(t, res)
	if generated["feedback"] != "solid block" {
		t.Fatalf("feedback = %v", generated["feedback"])
	}
	summary, _ := generated["session_summary"].(map[string]any)
	if summary["study_time_minutes"] != float64(25) {
		t.Fatalf("study_time_minutes = %v, want 25", summary["study_time_minutes"])
	}

	after, getErr := http.Get(env.ts.URL + "/v1/feedback/" + record.ID)
	if getErr != nil {
		t.Fatalf("GET feedback error = %v", getErr)
	}
	if after.StatusCode != http.StatusOK {
		t.Fatalf("post-generation GET status = %d, want %d", after.StatusCode, http.StatusOK)
	}
	stored := decodeBody(t, after)
	if stored["motivation"] != "onward" {
		t.Fatalf("stored motivation = %v", stored["motivation"])
	}

	tooShort := postJSON(t, env.ts.URL+"/v1/feedback", map[string]any{"timer_id": short.ID})
	if tooShort.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("short session status = %d, want %d", tooShort.StatusCode, http.StatusUnprocessableEntity)
	}
	shortBody := decodeBody(t, tooShort)
	if shortBody["code"] != "study_time_too_short" {
		t.Fatalf("short session code = %v", shortBody["code"])
	}

	unknown := postJSON(t, env.ts.URL+"/v1/feedback", map[string]any{"timer_id": "missing"})
	if unknown.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown timer status = %d, want %d", unknown.StatusCode, http.StatusNotFound)
	}
	unknown.Body.Close()
}

func TestHealthAndReady(t *testing.T) {
	env := newTestServer(t, "health", "")

	res, err := http.Get(env.ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	body := decodeBody(t, res)
	if body["store_mode"] != "in-memory" {
		t.Fatalf("store_mode = %v, want in-memory", body["store_mode"])
	}
}
