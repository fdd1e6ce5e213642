package main

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/dgallion1/guidenav/internal/config"
	"github.com/dgallion1/guidenav/internal/depcheck"
	"github.com/dgallion1/guidenav/internal/dispatch"
	"github.com/dgallion1/guidenav/internal/navigator"
	"github.com/dgallion1/guidenav/internal/tocsource"
)

// session is the wiring shared by every command.
type session struct {
	cfg    config.Config
	log    *slog.Logger
	fsys   fs.FS
	source *tocsource.Source
	runner *depcheck.Runner
}

// newSession loads the configuration with command-line overrides and
// builds a logger writing to logOut. defaultFormat applies when log.format
// is not configured.
func newSession(logOut io.Writer, defaultFormat string, overrides map[string]any) (*session, error) {
	if overrides == nil {
		overrides = map[string]any{}
	}
	if workspaceDir != "" {
		overrides["workspace"] = workspaceDir
	}
	if logLevel != "" {
		overrides["log.level"] = logLevel
	}

	cfg, err := config.Load(cfgFile, overrides)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := newLogger(cfg.Log, logOut, defaultFormat)
	if err != nil {
		return nil, err
	}

	fsys := cfg.WorkspaceFS()
	if fsys == nil {
		log.Warn("workspace not found", "workspace", cfg.Workspace)
	}
	return &session{
		cfg:    cfg,
		log:    log,
		fsys:   fsys,
		source: tocsource.New(fsys, cfg.SourceConfig()),
		runner: depcheck.New(cfg.DepCheckRunnerConfig(), log),
	}, nil
}

func newLogger(cfg config.LogConfig, w io.Writer, defaultFormat string) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	format := cfg.Format
	if format == "" {
		format = defaultFormat
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// navigator builds a navigator over the session's guide documents. d may
// be nil for read-only use.
func (s *session) navigator(d *dispatch.Dispatcher) *navigator.Navigator {
	return navigator.New(s.source, d,
		navigator.WithLogger(s.log),
		navigator.WithAssignmentsTitle(s.cfg.Guide.AssignmentsTitle),
	)
}

// dispatcher routes actions to c with existence checks against the
// workspace.
func (s *session) dispatcher(c dispatch.Collaborator, stats *dispatch.Stats) *dispatch.Dispatcher {
	opts := []dispatch.Option{dispatch.WithLogger(s.log)}
	if stats != nil {
		opts = append(opts, dispatch.WithStats(stats))
	}
	return dispatch.New(s.fsys, c, opts...)
}
