package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth handles health check requests. The backing store check
// includes a SQLite integrity scan, so a failure means the brain database
// is unreachable or corrupt.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			s.log.Error().Err(err).Msg("Health check failed")
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"service": "edgelab",
				"error":   err.Error(),
			})
			return
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "edgelab",
	})
}

// handleSlate returns the predicted slate for one date. The date query
// parameter is YYYY-MM-DD and defaults to today. An unparseable date is
// the only client error on this API; everything upstream degrades soft.
func (s *Server) handleSlate(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	resp := s.slate.Slate(r.Context(), date)
	s.writeJSON(w, http.StatusOK, resp)
}

// handleStandings returns the strength leaderboard.
func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"standings": s.ratings.TopTeams(s.cfg.Model.TopTeams),
	})
}

// handleAccuracy returns the engine's self-graded track record.
func (s *Server) handleAccuracy(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ratings.Accuracy())
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
