// Package terminal presents dispatched actions as plain text on a pair of
// writers. It backs the "open" command.
package terminal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dgallion1/guidenav/internal/depcheck"
	"github.com/dgallion1/guidenav/internal/dispatch"
	"github.com/dgallion1/guidenav/internal/document"
	"github.com/dgallion1/guidenav/internal/notebook"
	"github.com/dgallion1/guidenav/internal/outline"
	"github.com/dgallion1/guidenav/internal/pager"
	"github.com/dgallion1/guidenav/internal/panel"
)

type Options struct {
	// Root is the workspace directory on disk.
	Root string
	// NotebookOpener is the argv that opens a notebook; the absolute path
	// is appended. Empty prints a cell preview instead.
	NotebookOpener []string
	Pager          pager.Config
	// Page selects a single 1-based page to print; 0 prints all pages.
	Page   int
	Runner *depcheck.Runner
	Logger *slog.Logger
}

// Host implements dispatch.Collaborator for a terminal. Writes to out are
// serialized so concurrent actions never interleave mid-block.
type Host struct {
	fsys   fs.FS
	out    *lockedWriter
	errOut *lockedWriter
	opts   Options
	log    *slog.Logger

	checks sync.WaitGroup
	mu     sync.Mutex
	errs   []string
}

var _ dispatch.Collaborator = (*Host)(nil)

func New(fsys fs.FS, out, errOut io.Writer, opts Options) *Host {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Host{
		fsys:   fsys,
		out:    &lockedWriter{w: out},
		errOut: &lockedWriter{w: errOut},
		opts:   opts,
		log:    log,
	}
}

func (h *Host) PresentDocument(ctx context.Context, t dispatch.Target) error {
	doc, err := document.Load(h.fsys, t.Path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := WriteDocument(&buf, t.Entry, doc, h.opts.Pager, h.opts.Page); err != nil {
		return err
	}
	h.out.Write(buf.Bytes())
	return nil
}

// OpenNotebook launches the configured opener, or prints a preview of the
// notebook's cells when none is configured.
func (h *Host) OpenNotebook(ctx context.Context, t dispatch.Target) error {
	if len(h.opts.NotebookOpener) > 0 {
		return h.launch(t.Path)
	}
	nb, err := notebook.Load(h.fsys, t.Path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	WriteNotebook(&buf, t.Entry, t.Path, nb)
	h.out.Write(buf.Bytes())
	return nil
}

// WriteDocument writes a header for entry followed by doc as paged text.
// page selects a single 1-based page; 0 writes every page.
func WriteDocument(w io.Writer, entry outline.Entry, doc *document.Document, cfg pager.Config, page int) error {
	pages := pager.Paginate(doc, cfg)
	if page > 0 && page > len(pages) {
		return fmt.Errorf("page %d out of range (1-%d)", page, len(pages))
	}

	writeHeader(w, entry, doc.Title)
	if len(pages) == 0 {
		fmt.Fprintln(w, panel.EmptyBody)
		return nil
	}
	from, to := 0, len(pages)
	if page > 0 {
		from, to = page-1, page
	}
	for _, p := range pages[from:to] {
		writePage(w, p, len(pages))
	}
	return nil
}

// WriteNotebook writes a header for entry and a plain-text preview of nb.
func WriteNotebook(w io.Writer, entry outline.Entry, name string, nb *notebook.Notebook) {
	writeHeader(w, entry, name)
	fmt.Fprintf(w, "%s: %s\n\n", name, nb.Summary())
	for i, c := range nb.Cells {
		fmt.Fprintf(w, "--- [%d] %s\n", i+1, c.Type)
		fmt.Fprintln(w, strings.TrimRight(c.Source, "\n"))
		for _, out := range c.Outputs {
			fmt.Fprintln(w, "=> "+strings.TrimRight(out, "\n"))
		}
	}
}

func writeHeader(w io.Writer, e outline.Entry, fallback string) {
	title := e.Title
	if title == "" {
		title = fallback
	}
	fmt.Fprintln(w, panel.Eyebrow(e.GroupTitle))
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", max(len([]rune(title)), 3)))
	if e.Description != "" {
		fmt.Fprintln(w, e.Description)
	}
	fmt.Fprintln(w)
}

func writePage(w io.Writer, p pager.Page, total int) {
	label := fmt.Sprintf("[%d/%d]", p.Index+1, total)
	if len(p.Breadcrumb) > 0 {
		label += " " + strings.Join(p.Breadcrumb, " > ")
	}
	if p.SourcePage > 0 {
		label += fmt.Sprintf(" (page %d)", p.SourcePage)
	}
	fmt.Fprintln(w, label)
	fmt.Fprintln(w, p.Text)
	fmt.Fprintln(w)
}

func (h *Host) launch(name string) error {
	argv := append(append([]string{}, h.opts.NotebookOpener...), filepath.Join(h.opts.Root, filepath.FromSlash(name)))
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = h.opts.Root
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch notebook: %w", err)
	}
	// The opener outlives this process; do not wait on it.
	_ = cmd.Process.Release()
	fmt.Fprintf(h.out, "Opened %s with %s\n", name, argv[0])
	return nil
}

// RunDependencyCheck starts the check in the background; Wait blocks
// until it has finished. Output goes to the host's output writer.
func (h *Host) RunDependencyCheck(ctx context.Context, entry outline.Entry) {
	if h.opts.Runner == nil {
		h.ReportError("dependency check is not configured")
		return
	}
	h.checks.Go(func() {
		err := h.opts.Runner.Run(ctx, h.out)
		switch {
		case errors.Is(err, depcheck.ErrRunning):
			h.log.Info("dependency check already running", "entry", entry.Title)
		case err != nil:
			h.ReportError("dependency check failed: " + err.Error())
		}
	})
}

func (h *Host) ReportError(msg string) {
	h.mu.Lock()
	h.errs = append(h.errs, msg)
	h.mu.Unlock()
	fmt.Fprintln(h.errOut, "error: "+msg)
}

// Errors returns every reported message, in order.
func (h *Host) Errors() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.errs...)
}

// Wait blocks until every started dependency check has finished.
func (h *Host) Wait() {
	h.checks.Wait()
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
