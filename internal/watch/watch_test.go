package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recorder) handle(_ context.Context, paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, paths)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func newWatcher(t *testing.T, root string, rec *recorder) *Watcher {
	t.Helper()
	w, err := New(root, rec.handle, Options{
		GuideDir: ".guide",
		Files:    []string{"toc.json", "assignments.json"},
		Debounce: 50 * time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		w.Stop()
	})
	require.NoError(t, w.Start(ctx))
	return w
}

func TestWatcher_DebouncesTOCWrites(t *testing.T) {
	root := t.TempDir()
	guide := filepath.Join(root, ".guide")
	require.NoError(t, os.Mkdir(guide, 0o755))

	rec := &recorder{}
	newWatcher(t, root, rec)

	toc := filepath.Join(guide, "toc.json")
	for i := range 5 {
		require.NoError(t, os.WriteFile(toc, []byte(`{"categories":[]}`+string(rune('0'+i))), 0o644))
	}

	assert.Eventually(t, func() bool { return rec.count() >= 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
	assert.Contains(t, rec.calls[0], toc)
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	root := t.TempDir()
	guide := filepath.Join(root, ".guide")
	require.NoError(t, os.Mkdir(guide, 0o755))

	rec := &recorder{}
	newWatcher(t, root, rec)

	require.NoError(t, os.WriteFile(filepath.Join(guide, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "toc.json"), []byte("x"), 0o644))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestWatcher_GuideDirCreatedLater(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	newWatcher(t, root, rec)

	guide := filepath.Join(root, ".guide")
	require.NoError(t, os.Mkdir(guide, 0o755))
	assert.Eventually(t, func() bool { return rec.count() >= 1 }, 5*time.Second, 10*time.Millisecond)

	before := rec.count()
	// Give the watcher time to register the new directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(guide, "toc.json"), []byte("[]"), 0o644))
	assert.Eventually(t, func() bool { return rec.count() > before }, 5*time.Second, 10*time.Millisecond)
}

func TestRelevant(t *testing.T) {
	w := &Watcher{guideDir: filepath.Join("/ws", ".guide"), files: []string{"toc.json"}}
	assert.True(t, w.relevant("/ws/.guide"))
	assert.True(t, w.relevant("/ws/.guide/toc.json"))
	assert.False(t, w.relevant("/ws/.guide/other.json"))
	assert.False(t, w.relevant("/ws/toc.json"))
	assert.False(t, w.relevant("/ws/.guide/sub/toc.json"))
}

func TestStop_Idempotent(t *testing.T) {
	w, err := New(t.TempDir(), nil, Options{})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}
