// Package depcheck runs the configured environment check commands into a
// visible output surface. Commands are argv lists executed directly; no
// shell is involved and no guide text is ever substituted into them.
package depcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	DefaultTerminal = "EDSML Setup"
	DefaultBanner   = "EDSML: Synchronising environment..."
)

// DefaultCommands syncs the uv project, then imports the geospatial stack.
func DefaultCommands() [][]string {
	return [][]string{
		{"uv", "sync"},
		{"uv", "run", "python", "-c", "import leafmap; print('✅ OpenGeos Stack Ready!')"},
	}
}

// ErrRunning is returned by Start while a check is already in progress.
var ErrRunning = errors.New("dependency check already running")

// Config describes the check.
type Config struct {
	Terminal string     // name of the output surface
	Banner   string     // first line written
	Commands [][]string // argv lists, run in order
	Dir      string     // working directory, normally the workspace root
}

// CommandError reports a command that could not start or exited non-zero.
type CommandError struct {
	Argv []string
	Err  error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", strings.Join(e.Argv, " "), e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Runner executes the check. Only one check runs at a time.
type Runner struct {
	cfg Config
	log *slog.Logger

	mu      sync.Mutex
	running bool
	lastErr error
	lastRun time.Time
}

func New(cfg Config, log *slog.Logger) *Runner {
	if cfg.Terminal == "" {
		cfg.Terminal = DefaultTerminal
	}
	if cfg.Commands == nil {
		cfg.Commands = DefaultCommands()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{cfg: cfg, log: log}
}

// Terminal is the name of the output surface.
func (r *Runner) Terminal() string {
	return r.cfg.Terminal
}

// Status reports whether a check is running and how the last one ended.
func (r *Runner) Status() (running bool, lastRun time.Time, lastErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running, r.lastRun, r.lastErr
}

// Start runs the check in the background and returns immediately.
func (r *Runner) Start(ctx context.Context, w io.Writer) error {
	if !r.begin() {
		return ErrRunning
	}
	go func() {
		r.finish(r.run(ctx, w))
	}()
	return nil
}

// Run runs the check and waits for it. Commands run in order and the
// sequence stops at the first failure.
func (r *Runner) Run(ctx context.Context, w io.Writer) error {
	if !r.begin() {
		return ErrRunning
	}
	err := r.run(ctx, w)
	r.finish(err)
	return err
}

func (r *Runner) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *Runner) finish(err error) {
	r.mu.Lock()
	r.running = false
	r.lastErr = err
	r.lastRun = time.Now()
	r.mu.Unlock()

	if err != nil {
		r.log.Warn("dependency check failed", "terminal", r.cfg.Terminal, "error", err)
		return
	}
	r.log.Info("dependency check passed", "terminal", r.cfg.Terminal)
}

func (r *Runner) run(ctx context.Context, w io.Writer) error {
	if r.cfg.Banner != "" {
		fmt.Fprintln(w, r.cfg.Banner)
	}
	for _, argv := range r.cfg.Commands {
		if len(argv) == 0 {
			continue
		}
		fmt.Fprintf(w, "$ %s\n", strings.Join(argv, " "))

		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Dir = r.cfg.Dir
		cmd.Stdout = w
		cmd.Stderr = w
		if err := cmd.Run(); err != nil {
			fmt.Fprintf(w, "! %v\n", err)
			return &CommandError{Argv: argv, Err: err}
		}
	}
	return nil
}
