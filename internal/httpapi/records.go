package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/antoniostano/studymate/internal/goals"
	"github.com/antoniostano/studymate/internal/store"
	"github.com/antoniostano/studymate/internal/timer"
)

type saveRecordRequest struct {
	UserID       string     `json:"user_id"`
	GoalID       string     `json:"goal_id,omitempty"`
	StudyMinutes int        `json:"study_minutes"`
	RestMinutes  int        `json:"rest_minutes"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Mode         string     `json:"mode,omitempty"`
	Summary      string     `json:"summary,omitempty"`

	// Client-measured wall time; wins over everything else when present.
	StudySecondsOverride *int `json:"study_seconds_override,omitempty"`
	RestSecondsOverride  *int `json:"rest_seconds_override,omitempty"`
}

func (s *Server) handleSaveRecord(w http.ResponseWriter, r *http.Request) {
	var req saveRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "user_id is required")
		return
	}

	// Resolve the goal before persisting so a bad goal_id cannot leave an
	// orphaned record behind a 404.
	if strings.TrimSpace(req.GoalID) != "" {
		if _, err := s.goals.Get(r.Context(), req.GoalID); err != nil {
			if errors.Is(err, goals.ErrNotFound) {
				respondError(w, http.StatusNotFound, "goal_not_found", "study goal "+req.GoalID+" not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to load study goal")
			return
		}
	}

	studySeconds, restSeconds := timer.Reconcile(timer.ReconcileInput{
		StudyMinutes:         req.StudyMinutes,
		RestMinutes:          req.RestMinutes,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		Mode:                 req.Mode,
		OverrideStudySeconds: req.StudySecondsOverride,
		OverrideRestSeconds:  req.RestSecondsOverride,
	})

	record, err := s.repo.Save(r.Context(), store.TimerRecord{
		UserID:       req.UserID,
		GoalID:       req.GoalID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		StudySeconds: studySeconds,
		RestSeconds:  restSeconds,
		Mode:         req.Mode,
		Summary:      req.Summary,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to save timer record")
		return
	}

	if strings.TrimSpace(req.GoalID) != "" {
		if err := s.goals.AddProgress(r.Context(), req.GoalID, studySeconds/60); err != nil {
			if errors.Is(err, goals.ErrNotFound) {
				respondError(w, http.StatusNotFound, "goal_not_found", "study goal "+req.GoalID+" not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to update goal progress")
			return
		}
	}

	s.metrics.TimerEvents.WithLabelValues("record_saved").Inc()
	respondJSON(w, http.StatusCreated, record)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "query parameter user_id is required")
		return
	}
	limit := 20
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.repo.ListByUser(r.Context(), userID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list timer records")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"records": records})
}

type createGoalRequest struct {
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	TargetHours int    `json:"target_hours"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Title) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user_id and title are required")
		return
	}

	goal, err := s.goals.Create(r.Context(), goals.StudyGoal{
		UserID:      req.UserID,
		Title:       req.Title,
		TargetHours: req.TargetHours,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create study goal")
		return
	}
	respondJSON(w, http.StatusCreated, goal)
}
