package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/antoniostano/studymate/internal/timer"
)

// handleTimerWS streams the user's timer status once per second until the
// socket closes or the timer stops. Writes stay on this single goroutine.
func (s *Server) handleTimerWS(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "query parameter user_id is required")
		return
	}

	if _, err := s.engine.Status(userID); err != nil {
		respondError(w, http.StatusConflict, "no_active_session", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.TimerEvents.WithLabelValues("ws_connected").Inc()
	defer s.metrics.TimerEvents.WithLabelValues("ws_disconnected").Inc()

	// Drain client frames so pings and close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status, err := s.engine.Status(userID)
			if err != nil {
				// Timer stopped; tell the client and end the stream.
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				_ = conn.WriteJSON(timer.Status{UserID: userID, RunState: timer.RunStopped})
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(status); err != nil {
				return
			}
		}
	}
}
