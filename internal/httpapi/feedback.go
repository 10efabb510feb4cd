package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/antoniostano/studymate/internal/feedback"
)

func (s *Server) handleGetFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedback.Request
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.TimerID) == "" {
		respondError(w, http.StatusBadRequest, "missing_timer_id", "timer_id is required")
		return
	}

	res, err := s.feedback.GetFeedback(r.Context(), req)
	if err != nil {
		s.respondFeedbackError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetExistingFeedback(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing_timer_id", "missing timer record id")
		return
	}

	res, err := s.feedback.GetExisting(r.Context(), id)
	if err != nil {
		s.respondFeedbackError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) respondFeedbackError(w http.ResponseWriter, err error) {
	kind := feedback.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case feedback.KindTimerNotFound, feedback.KindGoalNotFound, feedback.KindFeedbackNotGenerated:
		status = http.StatusNotFound
	case feedback.KindStudyTimeTooShort:
		status = http.StatusUnprocessableEntity
	case feedback.KindRateLimitExceeded:
		status = http.StatusTooManyRequests
	case feedback.KindAIServiceUnavailable:
		status = http.StatusServiceUnavailable
	}
	if kind == "" {
		respondError(w, status, "internal_error", "feedback request failed")
		return
	}
	respondError(w, status, string(kind), err.Error())
}
