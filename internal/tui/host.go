package tui

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgallion1/guidenav/internal/depcheck"
	"github.com/dgallion1/guidenav/internal/dispatch"
	"github.com/dgallion1/guidenav/internal/document"
	"github.com/dgallion1/guidenav/internal/notebook"
	"github.com/dgallion1/guidenav/internal/outline"
	"github.com/dgallion1/guidenav/internal/pager"
	"github.com/dgallion1/guidenav/internal/panel"
	"github.com/dgallion1/guidenav/internal/terminal"
)

// ContentMsg replaces the viewport content.
type ContentMsg struct {
	Eyebrow string
	Title   string
	Body    string
}

// CheckOutputMsg carries the dependency check output so far.
type CheckOutputMsg struct {
	Terminal string
	Output   string
}

// ErrorMsg is shown on the status line.
type ErrorMsg struct {
	Text string
}

// Host implements dispatch.Collaborator by sending messages to a running
// program. Messages sent before Attach are dropped.
type Host struct {
	fsys   fs.FS
	pager  pager.Config
	runner *depcheck.Runner
	output *depcheck.Log
	log    *slog.Logger

	mu   sync.Mutex
	send func(tea.Msg)
}

var _ dispatch.Collaborator = (*Host)(nil)

// NewHost creates the collaborator. runner may be nil.
func NewHost(fsys fs.FS, cfg pager.Config, runner *depcheck.Runner, log *slog.Logger) *Host {
	if log == nil {
		log = slog.Default()
	}
	h := &Host{
		fsys:   fsys,
		pager:  cfg,
		runner: runner,
		output: depcheck.NewLog(0),
		log:    log,
	}
	h.output.OnWrite(h.flushOutput)
	return h
}

// Attach routes messages to send, normally (*tea.Program).Send.
func (h *Host) Attach(send func(tea.Msg)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.send = send
}

func (h *Host) emit(msg tea.Msg) {
	h.mu.Lock()
	send := h.send
	h.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

func (h *Host) PresentDocument(ctx context.Context, t dispatch.Target) error {
	doc, err := document.Load(h.fsys, t.Path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := terminal.WriteDocument(&buf, t.Entry, doc, h.pager, 0); err != nil {
		return err
	}
	h.emit(content(t.Entry, doc.Title, buf.String()))
	return nil
}

func (h *Host) OpenNotebook(ctx context.Context, t dispatch.Target) error {
	nb, err := notebook.Load(h.fsys, t.Path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	terminal.WriteNotebook(&buf, t.Entry, t.Path, nb)
	h.emit(content(t.Entry, t.Path, buf.String()))
	return nil
}

func content(e outline.Entry, fallback, body string) ContentMsg {
	title := e.Title
	if title == "" {
		title = fallback
	}
	return ContentMsg{Eyebrow: panel.Eyebrow(e.GroupTitle), Title: title, Body: body}
}

// RunDependencyCheck starts the check in the background; output streams
// to the viewport as it is written.
func (h *Host) RunDependencyCheck(ctx context.Context, entry outline.Entry) {
	if h.runner == nil {
		h.ReportError("dependency check is not configured")
		return
	}
	if running, _, _ := h.runner.Status(); running {
		h.log.Info("dependency check already running", "entry", entry.Title)
		return
	}
	h.output.Reset()
	err := h.runner.Start(context.WithoutCancel(ctx), h.output)
	if errors.Is(err, depcheck.ErrRunning) {
		h.log.Info("dependency check already running", "entry", entry.Title)
		return
	}
	if err != nil {
		h.ReportError(err.Error())
	}
}

func (h *Host) flushOutput() {
	h.emit(CheckOutputMsg{Terminal: h.runner.Terminal(), Output: h.output.String()})
}

func (h *Host) ReportError(msg string) {
	h.log.Warn("reported error", "message", msg)
	h.emit(ErrorMsg{Text: msg})
}
