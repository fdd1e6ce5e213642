// Package panel holds the single content view shared by a session. The
// first Show creates it, later calls replace its content, and Dispose
// clears it so the next Show creates a fresh one.
package panel

import (
	"html/template"
	"strings"
	"sync"
	"time"
)

// DefaultEyebrow labels content that has no group context.
const DefaultEyebrow = "MODULE CONTENT"

// EmptyBody is shown when a document has no renderable content.
const EmptyBody = "No content found."

// View is what the panel displays.
type View struct {
	Title   string        `json:"title"`
	Eyebrow string        `json:"eyebrow"`
	Body    template.HTML `json:"body"`
	// Text is a plain-text rendition for terminal hosts.
	Text string `json:"text,omitempty"`
	// Source is the workspace-relative path the view was built from.
	Source string `json:"source,omitempty"`
	// Notebook and DependencyCheck enable the panel's action buttons.
	Notebook        string `json:"notebook,omitempty"`
	DependencyCheck bool   `json:"dependency_check,omitempty"`
}

// Eyebrow returns the label shown above a view title: the group title in
// upper case, or DefaultEyebrow.
func Eyebrow(groupTitle string) string {
	if g := strings.TrimSpace(groupTitle); g != "" {
		return strings.ToUpper(g)
	}
	return DefaultEyebrow
}

// Snapshot is a point-in-time copy of the panel.
type Snapshot struct {
	Open      bool      `json:"open"`
	Instance  int       `json:"instance"`
	Revision  int       `json:"revision"`
	View      View      `json:"view"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Panel is safe for concurrent use.
type Panel struct {
	mu        sync.Mutex
	open      bool
	instance  int
	revision  int
	view      View
	updatedAt time.Time
	onChange  func(Snapshot)
}

func New() *Panel {
	return &Panel{}
}

// OnChange registers a callback invoked after every Show or Dispose.
func (p *Panel) OnChange(fn func(Snapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// Show displays v, creating the panel if none is open. It reports whether
// a new panel was created.
func (p *Panel) Show(v View) (created bool) {
	p.mu.Lock()
	if !p.open {
		p.open = true
		p.instance++
		p.revision = 0
		created = true
	}
	p.revision++
	p.view = v
	p.updatedAt = time.Now()
	snap, fn := p.snapshotLocked(), p.onChange
	p.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
	return created
}

// Current returns the panel state.
func (p *Panel) Current() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Dispose closes the panel. Disposing a closed panel is a no-op.
func (p *Panel) Dispose() {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return
	}
	p.open = false
	p.view = View{}
	p.updatedAt = time.Now()
	snap, fn := p.snapshotLocked(), p.onChange
	p.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

func (p *Panel) snapshotLocked() Snapshot {
	return Snapshot{
		Open:      p.open,
		Instance:  p.instance,
		Revision:  p.revision,
		View:      p.view,
		UpdatedAt: p.updatedAt,
	}
}
