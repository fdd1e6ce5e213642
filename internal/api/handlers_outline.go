package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/guidenav/internal/navigator"
	"github.com/dgallion1/guidenav/internal/outline"
	"github.com/dgallion1/guidenav/internal/resolver"
)

type outlineResponse struct {
	Groups    []outline.GroupSnapshot `json:"groups"`
	Workspace bool                    `json:"workspace"`
	Reason    string                  `json:"reason,omitempty"`
}

func (s *Server) outline() outlineResponse {
	_, reason := s.events.lastLoad()
	return outlineResponse{
		Groups:    s.nav.Tree().Snapshot(),
		Workspace: s.host.HasWorkspace(),
		Reason:    reason,
	}
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.outline())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.nav.Refresh(r.Context()); err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, s.outline())
}

type selectResponse struct {
	Selection resolver.Selection `json:"selection"`
	Error     string             `json:"error,omitempty"`
}

// handleSelect resolves and dispatches an entry. Dispatch failures are
// reported in the body alongside the selection; the request itself
// succeeded.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selectEntry(r.Context(), chi.URLParam(r, "group"), chi.URLParam(r, "entry"))
	if errors.Is(err, navigator.ErrUnknownEntry) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	resp := selectResponse{Selection: sel}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// selectEntry addresses an entry by name or by indices.
func (s *Server) selectEntry(ctx context.Context, group, entry string) (resolver.Selection, error) {
	ref, ok := s.nav.Lookup(group, entry)
	if !ok {
		return resolver.Selection{}, fmt.Errorf("%w: %s/%s", navigator.ErrUnknownEntry, group, entry)
	}
	return s.nav.Select(ctx, ref)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := s.events.since(r.URL.Query().Get("since"))
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
