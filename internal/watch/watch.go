// Package watch triggers an outline refresh when the guide documents
// change on disk.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler is called once per debounced burst of changes with the changed
// paths in first-seen order.
type Handler func(ctx context.Context, paths []string)

// Options configures a Watcher.
type Options struct {
	// GuideDir is the guide directory relative to the root.
	GuideDir string
	// Files are the watched file names inside GuideDir.
	Files    []string
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher watches the workspace root for the guide directory and the
// guide directory for its documents. Editors often save by rename, and
// the guide directory may appear after start, so both levels are watched.
type Watcher struct {
	root     string
	guideDir string
	files    []string
	debounce time.Duration
	handler  Handler
	log      *slog.Logger

	watcher  *fsnotify.Watcher
	changes  chan string
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	watching bool
}

func New(root string, handler Handler, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = 250 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:     filepath.Clean(root),
		guideDir: filepath.Join(filepath.Clean(root), filepath.FromSlash(opts.GuideDir)),
		files:    opts.Files,
		debounce: opts.Debounce,
		handler:  handler,
		log:      opts.Logger,
		watcher:  fw,
		changes:  make(chan string, 256),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. It returns once the watches are registered.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.root); err != nil {
		return err
	}
	w.addGuideDir()

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

func (w *Watcher) addGuideDir() {
	info, err := os.Stat(w.guideDir)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.watcher.Add(w.guideDir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		w.log.Warn("watch guide dir", "path", w.guideDir, "error", err)
	}
}

// relevant reports whether a change to name can affect the outline.
func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	if name == w.guideDir {
		return true
	}
	return filepath.Dir(name) == w.guideDir && slices.Contains(w.files, filepath.Base(name))
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) {
				continue
			}
			if filepath.Clean(event.Name) == w.guideDir && event.Has(fsnotify.Create) {
				w.addGuideDir()
			}
			select {
			case w.changes <- event.Name:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	var batch []string
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(batch) > 0 && w.handler != nil {
			w.handler(ctx, batch)
		}
		batch = nil
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case name := <-w.changes:
			if !slices.Contains(batch, name) {
				batch = append(batch, name)
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			flush()
		}
	}
}
