package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/guidenav/internal/api"
	"github.com/dgallion1/guidenav/internal/depcheck"
	"github.com/dgallion1/guidenav/internal/dispatch"
	"github.com/dgallion1/guidenav/internal/document"
	"github.com/dgallion1/guidenav/internal/panel"
	"github.com/dgallion1/guidenav/internal/watch"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the guide in a browser",
	Long: `Start the web host: an outline sidebar and a content panel for the
selected step. The guide is reloaded when .guide/toc.json or
.guide/assignments.json change.

Endpoints:
  /              - outline and panel
  /terminal      - dependency check output
  /api/outline   - normalized outline (JSON)
  /health        - health check

Examples:
  guidenav serve
  guidenav serve --port 3000 -w ~/courses/edsml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		overrides := map[string]any{}
		if cmd.Flags().Changed("host") {
			overrides["server.host"] = serveHost
		}
		if cmd.Flags().Changed("port") {
			overrides["server.port"] = servePort
		}
		s, err := newSession(os.Stdout, "json", overrides)
		if err != nil {
			return err
		}

		host := api.NewHost(s.fsys, panel.New(), document.NewRenderer(s.cfg.RenderOptions()), s.runner, depcheck.NewLog(0), api.HostOptions{
			Root:           s.cfg.Workspace,
			NotebookOpener: s.cfg.Notebook.Opener,
			Logger:         s.log,
		})
		stats := dispatch.NewStats(time.Hour)
		nav := s.navigator(s.dispatcher(host, stats))
		srv := api.NewServer(nav, host, stats, s.log, s.cfg)
		defer srv.Close()

		if err := nav.Refresh(ctx); err != nil {
			// Keep serving; the page shows the failure and a refresh retries.
			s.log.Warn("initial load failed", "error", err)
		}

		if s.cfg.Watch.Enabled && s.fsys != nil {
			w, err := watch.New(s.cfg.Workspace, func(ctx context.Context, paths []string) {
				s.log.Info("guide changed", "paths", paths)
				if err := nav.Refresh(ctx); err != nil {
					s.log.Warn("reload failed", "error", err)
				}
			}, watch.Options{
				GuideDir: s.cfg.Guide.Dir,
				Files:    []string{s.cfg.Guide.TOC, s.cfg.Guide.Assignments},
				Debounce: s.cfg.Watch.Debounce,
				Logger:   s.log,
			})
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()
		}

		httpServer := &http.Server{
			Addr:         s.cfg.Addr(),
			Handler:      srv,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			s.log.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
		}()

		s.log.Info("starting guidenav", "addr", s.cfg.Addr(), "workspace", s.cfg.Workspace)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "host to bind to")
	serveCmd.Flags().IntVar(&servePort, "port", 8090, "port to listen on")
}
