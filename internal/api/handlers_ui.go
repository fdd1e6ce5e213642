package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/guidenav/internal/depcheck"
	"github.com/dgallion1/guidenav/internal/navigator"
	"github.com/dgallion1/guidenav/internal/outline"
	"github.com/dgallion1/guidenav/internal/panel"
	"github.com/dgallion1/guidenav/internal/resolver"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pageEntry struct {
	Title       string
	Description string
	Group       int
	Index       int
}

type pageGroup struct {
	Title       string
	Description string
	Entries     []pageEntry
}

type pageData struct {
	Workspace bool
	Empty     string
	Groups    []pageGroup
	Panel     panel.Snapshot
	Status    Status
	Launcher  bool
}

func (s *Server) page() pageData {
	tree := s.nav.Tree()
	data := pageData{
		Workspace: s.host.HasWorkspace(),
		Panel:     s.host.Panel().Current(),
		Status:    s.host.Status(),
		Launcher:  len(s.host.opts.NotebookOpener) > 0,
	}

	if tree.IsEmpty() {
		kind, reason := s.events.lastLoad()
		switch {
		case kind == navigator.OutlineLoadFailed:
			data.Empty = reason
		case reason != "":
			data.Empty = "No " + s.tocPath() + " found."
		default:
			data.Empty = "This guide has no sections."
		}
		return data
	}

	for gi, g := range tree.Groups() {
		pg := pageGroup{Title: g.Title, Description: g.Description}
		for ei, e := range g.Entries() {
			pg.Entries = append(pg.Entries, pageEntry{
				Title:       e.Title,
				Description: e.Description,
				Group:       gi,
				Index:       ei,
			})
		}
		data.Groups = append(data.Groups, pg)
	}
	return data
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, s.page()); err != nil {
		s.log.Error("render index", "error", err)
	}
}

// handleSelectForm selects by position only. The sidebar posts indices,
// and titles may themselves be numbers.
func (s *Server) handleSelectForm(w http.ResponseWriter, r *http.Request) {
	_, err := s.selectPosition(r.Context(), chi.URLParam(r, "group"), chi.URLParam(r, "entry"))
	// Dispatch failures are reported to the host by the dispatcher.
	if errors.Is(err, navigator.ErrUnknownEntry) {
		s.host.ReportError(err.Error())
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) selectPosition(ctx context.Context, group, entry string) (resolver.Selection, error) {
	g, gerr := strconv.Atoi(group)
	e, eerr := strconv.Atoi(entry)
	if gerr != nil || eerr != nil {
		return resolver.Selection{}, fmt.Errorf("%w: %s/%s", navigator.ErrUnknownEntry, group, entry)
	}
	return s.nav.Select(ctx, outline.Ref{Group: g, Entry: e})
}

func (s *Server) handleRefreshForm(w http.ResponseWriter, r *http.Request) {
	if err := s.nav.Refresh(r.Context()); err != nil {
		s.host.ReportError(err.Error())
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDepCheckForm(w http.ResponseWriter, r *http.Request) {
	if err := s.startDepCheck(r); err != nil && !errors.Is(err, depcheck.ErrRunning) {
		s.host.ReportError(err.Error())
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/terminal", http.StatusSeeOther)
}

func (s *Server) handleNotebookForm(w http.ResponseWriter, r *http.Request) {
	if err := s.host.LaunchNotebook(r.FormValue("path")); err != nil {
		s.host.ReportError(err.Error())
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
