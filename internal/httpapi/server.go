package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/studymate/internal/config"
	"github.com/antoniostano/studymate/internal/feedback"
	"github.com/antoniostano/studymate/internal/goals"
	"github.com/antoniostano/studymate/internal/observability"
	"github.com/antoniostano/studymate/internal/store"
	"github.com/antoniostano/studymate/internal/timer"
)

type Server struct {
	cfg       config.Config
	engine    *timer.Engine
	repo      store.Repository
	goals     goals.Store
	feedback  *feedback.Service
	metrics   *observability.Metrics
	storeMode string
	upgrader  websocket.Upgrader
}

func New(cfg config.Config, engine *timer.Engine, repo store.Repository, goalStore goals.Store, feedbackSvc *feedback.Service, metrics *observability.Metrics) *Server {
	storeMode := "in-memory"
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		storeMode = "postgres"
	}
	return &Server{
		cfg:       cfg,
		engine:    engine,
		repo:      repo,
		goals:     goalStore,
		feedback:  feedbackSvc,
		metrics:   metrics,
		storeMode: storeMode,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up; other sites must not
				// be able to watch a user's timer.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/timer/start", s.handleTimerStart)
	r.Post("/v1/timer/pause", s.handleTimerPause)
	r.Post("/v1/timer/stop", s.handleTimerStop)
	r.Post("/v1/timer/switch", s.handleTimerSwitch)
	r.Get("/v1/timer/status", s.handleTimerStatus)
	r.Get("/v1/timer/ws", s.handleTimerWS)

	r.Post("/v1/timer/records", s.handleSaveRecord)
	r.Get("/v1/timer/records", s.handleListRecords)

	r.Post("/v1/goals", s.handleCreateGoal)

	r.Post("/v1/feedback", s.handleGetFeedback)
	r.Get("/v1/feedback/{id}", s.handleGetExistingFeedback)
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"store_mode": s.storeMode,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ready",
		"store_mode": s.storeMode,
	})
}

func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.metrics.SnapshotStages())
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
