package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io/fs"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgallion1/guidenav/internal/depcheck"
	"github.com/dgallion1/guidenav/internal/dispatch"
	"github.com/dgallion1/guidenav/internal/document"
	"github.com/dgallion1/guidenav/internal/notebook"
	"github.com/dgallion1/guidenav/internal/outline"
	"github.com/dgallion1/guidenav/internal/panel"
)

// HostOptions configures the web collaborator.
type HostOptions struct {
	// Root is the workspace directory on disk, used to launch notebooks.
	Root string
	// NotebookOpener is the argv that opens a notebook; the absolute
	// notebook path is appended. Empty disables launching.
	NotebookOpener []string
	Logger         *slog.Logger
}

// Status is the last error reported to the user.
type Status struct {
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at,omitzero"`
}

// Host presents dispatched actions in the web panel. It implements
// dispatch.Collaborator.
type Host struct {
	fsys     fs.FS
	panel    *panel.Panel
	renderer *document.Renderer
	runner   *depcheck.Runner
	terminal *depcheck.Log
	opts     HostOptions
	log      *slog.Logger

	mu     sync.Mutex
	status Status
}

var _ dispatch.Collaborator = (*Host)(nil)

// NewHost creates the web collaborator. fsys is nil when no workspace is
// open. runner may be nil, which disables dependency checks.
func NewHost(fsys fs.FS, p *panel.Panel, r *document.Renderer, runner *depcheck.Runner, terminal *depcheck.Log, opts HostOptions) *Host {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if terminal == nil {
		terminal = depcheck.NewLog(0)
	}
	return &Host{
		fsys:     fsys,
		panel:    p,
		renderer: r,
		runner:   runner,
		terminal: terminal,
		opts:     opts,
		log:      log,
	}
}

// HasWorkspace reports whether a workspace filesystem is open.
func (h *Host) HasWorkspace() bool {
	return h.fsys != nil
}

func (h *Host) Panel() *panel.Panel {
	return h.panel
}

// Terminal is the dependency check output.
func (h *Host) Terminal() *depcheck.Log {
	return h.terminal
}

func (h *Host) Runner() *depcheck.Runner {
	return h.runner
}

func (h *Host) PresentDocument(ctx context.Context, t dispatch.Target) error {
	doc, err := document.Load(h.fsys, t.Path)
	if err != nil {
		return err
	}

	body := template.HTML("<p>" + panel.EmptyBody + "</p>")
	if !doc.IsEmpty() {
		rendered, err := h.renderer.Render(doc)
		if err != nil {
			return err
		}
		body = template.HTML(rendered)
	}

	h.panel.Show(panel.View{
		Title:           titleFor(t.Entry, doc.Title),
		Eyebrow:         panel.Eyebrow(t.Entry.GroupTitle),
		Body:            body,
		Source:          t.Path,
		Notebook:        t.Entry.NotebookPath,
		DependencyCheck: t.Entry.RequiresDependencyCheck,
	})
	return nil
}

// OpenNotebook shows a cell preview of the notebook in the panel. The
// configured opener is not launched here; the panel button does that.
func (h *Host) OpenNotebook(ctx context.Context, t dispatch.Target) error {
	nb, err := notebook.Load(h.fsys, t.Path)
	if err != nil {
		return err
	}
	body, err := h.renderNotebook(nb)
	if err != nil {
		return err
	}
	h.panel.Show(panel.View{
		Title:           titleFor(t.Entry, t.Path),
		Eyebrow:         panel.Eyebrow(t.Entry.GroupTitle),
		Body:            body,
		Text:            nb.Summary(),
		Source:          t.Path,
		Notebook:        t.Path,
		DependencyCheck: t.Entry.RequiresDependencyCheck,
	})
	return nil
}

func (h *Host) renderNotebook(nb *notebook.Notebook) (template.HTML, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<p class=\"nb-summary\">%s</p>\n", html.EscapeString(nb.Summary()))
	for _, c := range nb.Cells {
		switch c.Type {
		case "markdown":
			rendered, err := h.renderer.Render(&document.Document{Markdown: []byte(c.Source)})
			if err != nil {
				return "", err
			}
			buf.WriteString("<div class=\"cell markdown\">")
			buf.Write(rendered)
			buf.WriteString("</div>\n")
		case "code":
			fmt.Fprintf(&buf, "<div class=\"cell code\"><pre><code>%s</code></pre>", html.EscapeString(c.Source))
			for _, out := range c.Outputs {
				fmt.Fprintf(&buf, "<pre class=\"output\">%s</pre>", html.EscapeString(out))
			}
			buf.WriteString("</div>\n")
		default:
			fmt.Fprintf(&buf, "<div class=\"cell raw\"><pre>%s</pre></div>\n", html.EscapeString(c.Source))
		}
	}
	return template.HTML(buf.String()), nil
}

// RunDependencyCheck starts the check in the background. Output goes to
// the terminal log; the check outlives the request that started it.
func (h *Host) RunDependencyCheck(ctx context.Context, entry outline.Entry) {
	if h.runner == nil {
		h.ReportError("dependency check is not configured")
		return
	}
	err := h.runner.Start(context.WithoutCancel(ctx), h.terminal)
	if errors.Is(err, depcheck.ErrRunning) {
		h.log.Info("dependency check already running", "entry", entry.Title)
		return
	}
	if err != nil {
		h.ReportError(err.Error())
		return
	}
	h.log.Info("dependency check started", "terminal", h.runner.Terminal(), "entry", entry.Title)
}

func (h *Host) ReportError(msg string) {
	h.mu.Lock()
	h.status = Status{Message: msg, At: time.Now()}
	h.mu.Unlock()
	h.log.Warn("reported error", "message", msg)
}

// Status returns the last reported error.
func (h *Host) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// LaunchNotebook runs the configured opener for a workspace notebook. The
// opener is started and not waited on.
func (h *Host) LaunchNotebook(name string) error {
	if len(h.opts.NotebookOpener) == 0 {
		return errors.New("no notebook opener configured")
	}
	if h.fsys == nil {
		return dispatch.ErrNoWorkspace
	}
	if !fs.ValidPath(name) {
		return fmt.Errorf("invalid notebook path %q", name)
	}
	if _, err := fs.Stat(h.fsys, name); err != nil {
		return fmt.Errorf("%w: %s", dispatch.ErrMissingContent, name)
	}

	argv := append(append([]string{}, h.opts.NotebookOpener...), filepath.Join(h.opts.Root, filepath.FromSlash(name)))
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = h.opts.Root
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch notebook: %w", err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			h.log.Warn("notebook opener exited", "notebook", name, "error", err)
		}
	}()
	h.log.Info("notebook launched", "notebook", name, "opener", argv[0])
	return nil
}

func titleFor(e outline.Entry, fallback string) string {
	if e.Title != "" {
		return e.Title
	}
	return fallback
}
