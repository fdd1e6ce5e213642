// Package navigator holds a guide session: the current outline, refresh
// and selection, and the events they emit.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/guidenav/internal/dispatch"
	"github.com/dgallion1/guidenav/internal/normalize"
	"github.com/dgallion1/guidenav/internal/outline"
	"github.com/dgallion1/guidenav/internal/resolver"
	"github.com/dgallion1/guidenav/internal/tocsource"
)

// ErrUnknownEntry is returned when a selection does not address an entry
// in the current tree.
var ErrUnknownEntry = errors.New("unknown outline entry")

// Loader supplies decoded guide documents. *tocsource.Source implements it.
type Loader interface {
	LoadTOC() (any, error)
	LoadAssignments() (any, error)
}

type EventKind string

const (
	OutlineLoaded     EventKind = "outline_loaded"
	OutlineLoadFailed EventKind = "outline_load_failed"
	SelectionResolved EventKind = "selection_resolved"
)

// Event is emitted to subscribers after a refresh or selection.
type Event struct {
	ID        string              `json:"id"`
	Kind      EventKind           `json:"kind"`
	Tree      *outline.Tree       `json:"-"`
	Reason    string              `json:"reason,omitempty"`
	Selection *resolver.Selection `json:"selection,omitempty"`
	At        time.Time           `json:"at"`
}

// Navigator is safe for concurrent use. Readers always see a complete
// tree; refreshes are serialized and swap the tree in one step.
type Navigator struct {
	src              Loader
	dispatcher       *dispatch.Dispatcher
	log              *slog.Logger
	assignmentsTitle string

	tree      atomic.Pointer[outline.Tree]
	refreshMu sync.Mutex

	subMu  sync.RWMutex
	subs   map[int]func(Event)
	nextID int
}

type Option func(*Navigator)

func WithLogger(log *slog.Logger) Option {
	return func(n *Navigator) { n.log = log }
}

// WithAssignmentsTitle sets the label used for an untitled assignments
// group.
func WithAssignmentsTitle(title string) Option {
	return func(n *Navigator) { n.assignmentsTitle = title }
}

// New creates a Navigator with an empty tree. d may be nil when the
// session only reads the outline.
func New(src Loader, d *dispatch.Dispatcher, opts ...Option) *Navigator {
	n := &Navigator{
		src:              src,
		dispatcher:       d,
		log:              slog.Default(),
		assignmentsTitle: normalize.DefaultAssignmentsTitle,
		subs:             make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.tree.Store(outline.Empty())
	return n
}

// Tree returns the current outline. It is never nil.
func (n *Navigator) Tree() *outline.Tree {
	return n.tree.Load()
}

// Refresh reloads and renormalizes the guide documents.
//
// A missing TOC is not a failure: an empty tree is published and the
// reason is carried on the OutlineLoaded event. A malformed TOC leaves the
// previous tree in place and emits OutlineLoadFailed.
func (n *Navigator) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.refreshMu.Lock()
	defer n.refreshMu.Unlock()

	toc, err := n.src.LoadTOC()
	if errors.Is(err, tocsource.ErrNotFound) {
		n.log.Info("guide not found", "reason", err.Error())
		n.publish(outline.Empty(), err.Error())
		return nil
	}
	if err != nil {
		return n.fail(err)
	}

	assignments, err := n.src.LoadAssignments()
	if err != nil {
		if !errors.Is(err, tocsource.ErrNotFound) {
			n.log.Warn("assignments skipped", "error", err)
		}
		assignments = nil
	}

	tree, err := normalize.Build(toc, assignments, n.assignmentsTitle)
	if err != nil {
		return n.fail(err)
	}

	n.log.Info("outline loaded",
		"groups", tree.Len(),
		"changed", !outline.Equal(n.Tree(), tree),
	)
	n.publish(tree, "")
	return nil
}

func (n *Navigator) publish(tree *outline.Tree, reason string) {
	n.tree.Store(tree)
	n.emit(Event{Kind: OutlineLoaded, Tree: tree, Reason: reason})
}

func (n *Navigator) fail(err error) error {
	n.log.Warn("outline load failed", "error", err)
	n.emit(Event{Kind: OutlineLoadFailed, Tree: n.Tree(), Reason: err.Error()})
	return fmt.Errorf("refresh outline: %w", err)
}

// Select resolves the entry at ref against the current tree and dispatches
// its actions. The selection is returned even when dispatch fails.
func (n *Navigator) Select(ctx context.Context, ref outline.Ref) (resolver.Selection, error) {
	entry, ok := n.Tree().Entry(ref)
	if !ok {
		return resolver.Selection{}, fmt.Errorf("%w: group %d entry %d", ErrUnknownEntry, ref.Group, ref.Entry)
	}

	sel := resolver.Select(ref, entry)
	n.emit(Event{Kind: SelectionResolved, Selection: &sel})

	if n.dispatcher == nil {
		return sel, nil
	}
	return sel, n.dispatcher.Dispatch(ctx, sel)
}

// Find selects an entry by group and entry name.
func (n *Navigator) Find(group, entry string) (outline.Ref, bool) {
	return n.Tree().Find(group, entry)
}

// Lookup addresses an entry by name, falling back to zero-based indices,
// e.g. ("week-1", "setup") or ("0", "2").
func (n *Navigator) Lookup(group, entry string) (outline.Ref, bool) {
	tree := n.Tree()
	if ref, ok := tree.Find(group, entry); ok {
		return ref, true
	}
	g, err := strconv.Atoi(group)
	if err != nil {
		return outline.Ref{}, false
	}
	e, err := strconv.Atoi(entry)
	if err != nil {
		return outline.Ref{}, false
	}
	ref := outline.Ref{Group: g, Entry: e}
	if _, ok := tree.Entry(ref); !ok {
		return outline.Ref{}, false
	}
	return ref, true
}

// Subscribe registers fn for every subsequent event. Handlers run
// synchronously on the emitting goroutine. The returned func removes the
// subscription.
func (n *Navigator) Subscribe(fn func(Event)) (unsubscribe func()) {
	n.subMu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	n.subMu.Unlock()

	return func() {
		n.subMu.Lock()
		delete(n.subs, id)
		n.subMu.Unlock()
	}
}

func (n *Navigator) emit(ev Event) {
	ev.ID = uuid.NewString()
	ev.At = time.Now().UTC()

	n.subMu.RLock()
	ids := make([]int, 0, len(n.subs))
	for id := range n.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	handlers := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, n.subs[id])
	}
	n.subMu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
