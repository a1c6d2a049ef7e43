package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWatcher(t *testing.T, w *Watcher) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	return cancel
}

func TestWatcher_RebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	var builds atomic.Int32
	w := New(root, func(context.Context) error {
		builds.Add(1)
		return nil
	}, Options{Debounce: 20 * time.Millisecond})
	runWatcher(t, w)

	require.Eventually(t, func() bool { return builds.Load() == 1 }, 2*time.Second, 10*time.Millisecond, "initial build")

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# A"), 0o600))
	require.Eventually(t, func() bool { return builds.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	var builds atomic.Int32
	w := New(root, func(context.Context) error {
		builds.Add(1)
		return nil
	}, Options{Debounce: 20 * time.Millisecond})
	runWatcher(t, w)
	require.Eventually(t, func() bool { return builds.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	sub := filepath.Join(root, "posts")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.Eventually(t, func() bool { return builds.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)

	n := builds.Load()
	require.Eventually(t, func() bool {
		// Keep touching the file until the new directory's watch is active.
		_ = os.WriteFile(filepath.Join(sub, "x.md"), []byte("x"), 0o600)
		return builds.Load() > n
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatcher_PeriodicRebuilds(t *testing.T) {
	var builds atomic.Int32
	w := New(t.TempDir(), func(context.Context) error {
		builds.Add(1)
		return nil
	}, Options{Every: 50 * time.Millisecond})
	runWatcher(t, w)
	require.Eventually(t, func() bool { return builds.Load() >= 3 }, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_BuildErrorsDoNotStopWatching(t *testing.T) {
	var builds atomic.Int32
	w := New(t.TempDir(), func(context.Context) error {
		builds.Add(1)
		return assert.AnError
	}, Options{Every: 30 * time.Millisecond})
	runWatcher(t, w)
	require.Eventually(t, func() bool { return builds.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_Ignored(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "_site")
	w := New(root, nil, Options{Ignore: []string{out}})

	assert.True(t, w.ignored(out))
	assert.True(t, w.ignored(filepath.Join(out, "index.html")))
	assert.True(t, w.ignored(filepath.Join(out+"_stage", "index.html")))
	assert.True(t, w.ignored(out+".prev"))
	assert.False(t, w.ignored(filepath.Join(root, "_site2", "a.md")))
	assert.False(t, w.ignored(filepath.Join(root, "a.md")))
}

func TestShouldIgnoreEvent(t *testing.T) {
	for _, p := range []string{".hidden", "a.md~", "a.md.swp", "#a.md#", "dir/.DS_Store"} {
		assert.True(t, shouldIgnoreEvent(p), p)
	}
	for _, p := range []string{"a.md", "_layouts/base.html", "img/logo.png"} {
		assert.False(t, shouldIgnoreEvent(p), p)
	}
}
