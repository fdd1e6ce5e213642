package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/guidenav/internal/config"
	"github.com/dgallion1/guidenav/internal/dispatch"
	"github.com/dgallion1/guidenav/internal/navigator"
)

// Server is the web host for a guide session.
type Server struct {
	router      chi.Router
	nav         *navigator.Navigator
	host        *Host
	stats       *dispatch.Stats
	events      *eventLog
	unsubscribe func()
	log         *slog.Logger
	cfg         config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil.
func NewServer(nav *navigator.Navigator, host *Host, stats *dispatch.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		nav:    nav,
		host:   host,
		stats:  stats,
		events: newEventLog(100),
		log:    log,
		cfg:    cfg,
	}
	s.unsubscribe = nav.Subscribe(s.events.record)
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close detaches the server from the navigator.
func (s *Server) Close() {
	s.unsubscribe()
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	// Browser pages. Forms post and redirect back.
	r.Get("/", s.handleIndex)
	r.Post("/select/{group}/{entry}", s.handleSelectForm)
	r.Post("/refresh", s.handleRefreshForm)
	r.Post("/depcheck", s.handleDepCheckForm)
	r.Post("/notebook", s.handleNotebookForm)
	r.Get("/terminal", s.handleTerminal)

	r.Route("/api", func(r chi.Router) {
		r.Get("/outline", s.handleOutline)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/select/{group}/{entry}", s.handleSelect)
		r.Get("/panel", s.handlePanel)
		r.Delete("/panel", s.handleClosePanel)
		r.Post("/depcheck", s.handleDepCheck)
		r.Get("/events", s.handleEvents)
		r.Get("/stats/dispatch", s.handleDispatchStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// tocPath is the workspace-relative TOC location shown in empty states.
func (s *Server) tocPath() string {
	return path.Join(s.cfg.Guide.Dir, s.cfg.Guide.TOC)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
