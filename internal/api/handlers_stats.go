package api

import (
	"net/http"
)

func (s *Server) handleDispatchStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "dispatch stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stats": s.stats.Snapshot(),
	})
}
