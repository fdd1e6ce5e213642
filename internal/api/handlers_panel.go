package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/dgallion1/guidenav/internal/depcheck"
	"github.com/dgallion1/guidenav/internal/panel"
)

type panelResponse struct {
	Panel  panel.Snapshot `json:"panel"`
	Status Status         `json:"status"`
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, panelResponse{
		Panel:  s.host.Panel().Current(),
		Status: s.host.Status(),
	})
}

func (s *Server) handleClosePanel(w http.ResponseWriter, r *http.Request) {
	s.host.Panel().Dispose()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDepCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.startDepCheck(r); err != nil {
		code := http.StatusServiceUnavailable
		if errors.Is(err, depcheck.ErrRunning) {
			code = http.StatusConflict
		}
		jsonError(w, err.Error(), code)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"terminal": s.host.Runner().Terminal(),
		"status":   "started",
	})
}

func (s *Server) startDepCheck(r *http.Request) error {
	runner := s.host.Runner()
	if runner == nil {
		return errors.New("dependency check is not configured")
	}
	return runner.Start(context.WithoutCancel(r.Context()), s.host.Terminal())
}

// handleTerminal shows the dependency check output as plain text.
func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	name := depcheck.DefaultTerminal
	state := "idle"
	if runner := s.host.Runner(); runner != nil {
		name = runner.Terminal()
		running, _, lastErr := runner.Status()
		switch {
		case running:
			state = "running"
		case lastErr != nil:
			state = "failed: " + lastErr.Error()
		}
	}
	w.Write([]byte("== " + name + " (" + state + ") ==\n"))
	w.Write([]byte(s.host.Terminal().String()))
}
