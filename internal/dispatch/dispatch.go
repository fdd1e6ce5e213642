// Package dispatch carries resolved selections out to a presentation host.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/guidenav/internal/outline"
	"github.com/dgallion1/guidenav/internal/resolver"
)

// Target is the argument to an open action. Entry carries the group
// context for display.
type Target struct {
	Path  string
	Entry outline.Entry
}

// Collaborator is implemented by each presentation host. Implementations
// must be safe for concurrent use; independent actions of one selection
// run in parallel.
type Collaborator interface {
	PresentDocument(ctx context.Context, t Target) error
	OpenNotebook(ctx context.Context, t Target) error
	// RunDependencyCheck starts the check and returns without waiting.
	RunDependencyCheck(ctx context.Context, entry outline.Entry)
	ReportError(msg string)
}

// ErrMissingContent is wrapped when an action's path does not exist in the
// workspace.
var ErrMissingContent = errors.New("content not found")

// ErrNoWorkspace is wrapped when an open action is dispatched without a
// workspace filesystem.
var ErrNoWorkspace = errors.New("no workspace opened")

// DispatchError reports one failed action.
type DispatchError struct {
	Action resolver.Action
	Entry  string
	Err    error
}

func (e *DispatchError) Error() string {
	if e.Action.Path == "" {
		return fmt.Sprintf("%s for %q: %v", e.Action.Kind, e.Entry, e.Err)
	}
	return fmt.Sprintf("%s %s for %q: %v", e.Action.Kind, e.Action.Path, e.Entry, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Dispatcher invokes a Collaborator for resolved actions.
type Dispatcher struct {
	fsys  fs.FS
	c     Collaborator
	stats *Stats
	log   *slog.Logger
}

type Option func(*Dispatcher)

func WithStats(s *Stats) Option {
	return func(d *Dispatcher) { d.stats = s }
}

func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// New creates a Dispatcher. fsys is the workspace root used for existence
// checks; nil means no workspace is open.
func New(fsys fs.FS, c Collaborator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		fsys:  fsys,
		c:     c,
		stats: NewStats(time.Hour),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Stats returns the dispatcher's latency tracker.
func (d *Dispatcher) Stats() *Stats {
	return d.stats
}

// Dispatch runs every action of sel. Actions are independent: one failing
// does not stop the others. Each failure is surfaced through ReportError
// in action order and the failures are returned joined. Nothing is retried.
func (d *Dispatcher) Dispatch(ctx context.Context, sel resolver.Selection) error {
	errs := make([]error, len(sel.Actions))

	var g errgroup.Group
	for i, a := range sel.Actions {
		g.Go(func() error {
			errs[i] = d.run(ctx, sel.Entry, a)
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		d.log.Warn("dispatch failed", "entry", sel.Entry.Title, "group", sel.Entry.GroupTitle, "error", err)
		d.c.ReportError(err.Error())
		failed = append(failed, err)
	}
	return errors.Join(failed...)
}

func (d *Dispatcher) run(ctx context.Context, entry outline.Entry, a resolver.Action) error {
	start := time.Now()
	err := d.invoke(ctx, entry, a)
	d.stats.Record(a.Kind, time.Since(start), err != nil)
	if err != nil {
		return &DispatchError{Action: a, Entry: entry.Title, Err: err}
	}
	return nil
}

func (d *Dispatcher) invoke(ctx context.Context, entry outline.Entry, a resolver.Action) error {
	if err := resolver.Validate(a); err != nil {
		return err
	}

	switch a.Kind {
	case resolver.NoOp:
		return nil
	case resolver.RunDependencyCheck:
		d.c.RunDependencyCheck(ctx, entry)
		return nil
	}

	name := resolver.CleanPath(a.Path)
	if err := d.exists(name); err != nil {
		return err
	}
	t := Target{Path: name, Entry: entry}
	if a.Kind == resolver.OpenNotebook {
		return d.c.OpenNotebook(ctx, t)
	}
	return d.c.PresentDocument(ctx, t)
}

func (d *Dispatcher) exists(name string) error {
	if d.fsys == nil {
		return ErrNoWorkspace
	}
	info, err := fs.Stat(d.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingContent, name)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrMissingContent, name)
	}
	return nil
}
