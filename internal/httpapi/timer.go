package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/antoniostano/studymate/internal/timer"
)

type timerRequest struct {
	UserID       string `json:"user_id"`
	StudyMinutes int    `json:"study_minutes"`
	BreakMinutes int    `json:"break_minutes"`
	TimerType    string `json:"timer_type,omitempty"`
}

func (s *Server) handleTimerStart(w http.ResponseWriter, r *http.Request) {
	var req timerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "user_id is required")
		return
	}
	if req.StudyMinutes <= 0 || req.BreakMinutes < 0 {
		respondError(w, http.StatusBadRequest, "invalid_durations", "study_minutes must be positive and break_minutes non-negative")
		return
	}

	status := s.engine.Start(req.UserID, req.StudyMinutes, req.BreakMinutes, timer.Mode(req.TimerType))
	s.metrics.TimerEvents.WithLabelValues("started").Inc()
	s.metrics.ActiveTimers.Set(float64(s.engine.ActiveCount()))
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleTimerPause(w http.ResponseWriter, r *http.Request) {
	s.timerMutation(w, r, "paused", s.engine.Pause)
}

func (s *Server) handleTimerStop(w http.ResponseWriter, r *http.Request) {
	s.timerMutation(w, r, "stopped", s.engine.Stop)
}

func (s *Server) handleTimerSwitch(w http.ResponseWriter, r *http.Request) {
	s.timerMutation(w, r, "switched", s.engine.SwitchMode)
}

func (s *Server) timerMutation(w http.ResponseWriter, r *http.Request, event string, op func(string) (timer.Status, error)) {
	var req timerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "user_id is required")
		return
	}

	status, err := op(req.UserID)
	if err != nil {
		if errors.Is(err, timer.ErrNoActiveSession) {
			respondError(w, http.StatusConflict, "no_active_session", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	s.metrics.TimerEvents.WithLabelValues(event).Inc()
	s.metrics.ActiveTimers.Set(float64(s.engine.ActiveCount()))
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleTimerStatus(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "query parameter user_id is required")
		return
	}
	status, err := s.engine.Status(userID)
	if err != nil {
		respondError(w, http.StatusConflict, "no_active_session", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, status)
}
