package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/launcher-core/pkg/logger"
)

func newTestWatcher(t *testing.T, cfg Config) Watcher {
	t.Helper()

	if cfg.DebounceInterval == 0 {
		cfg.DebounceInterval = 20 * time.Millisecond
	}

	w, err := New(cfg, logger.Noop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if closeErr := w.Close(); closeErr != nil {
			t.Logf("Close() error = %v", closeErr)
		}
	})
	return w
}

func waitEvent(t *testing.T, w Watcher, timeout time.Duration) (Event, bool) {
	t.Helper()

	select {
	case ev, ok := <-w.Events():
		return ev, ok
	case <-time.After(timeout):
		return Event{}, false
	}
}

func TestStartInvalidPath(t *testing.T) {
	w := newTestWatcher(t, Config{})

	err := w.Start(context.Background(), []string{filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestStartTwice(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.Start(ctx, []string{dir}))
	assert.ErrorIs(t, w.Start(ctx, []string{dir}), ErrAlreadyStarted)
}

func TestStopLifecycle(t *testing.T) {
	w := newTestWatcher(t, Config{})
	assert.ErrorIs(t, w.Stop(), ErrNotStarted)

	require.NoError(t, w.Start(context.Background(), []string{t.TempDir()}))
	require.NoError(t, w.Stop())
	assert.ErrorIs(t, w.Stop(), ErrNotStarted)
}

func TestFilteredWriteEvent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "launcher.db")
	other := filepath.Join(dir, "other.txt")

	w := newTestWatcher(t, Config{
		Filter: func(path string) bool { return filepath.Base(path) == "launcher.db" },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx, []string{dir}))

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0600))
	require.NoError(t, os.WriteFile(target, []byte("v1"), 0600))

	ev, ok := waitEvent(t, w, 2*time.Second)
	require.True(t, ok, "expected an event for the filtered file")
	assert.Equal(t, target, ev.Path)

	// Only the filtered file is reported.
	if extra, got := waitEvent(t, w, 150*time.Millisecond); got {
		assert.Equal(t, target, extra.Path)
	}
}

func TestDebounceCoalesces(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "appfilter.xml")

	w := newTestWatcher(t, Config{DebounceInterval: 100 * time.Millisecond})
	require.NoError(t, w.Start(context.Background(), []string{dir}))

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(target, []byte{byte(i)}, 0600))
	}

	_, ok := waitEvent(t, w, 2*time.Second)
	require.True(t, ok)

	_, again := waitEvent(t, w, 250*time.Millisecond)
	assert.False(t, again, "burst of writes should coalesce into one event")
}

func TestRecursiveWatch(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "pack", "drawable")
	require.NoError(t, os.MkdirAll(sub, 0700))

	w := newTestWatcher(t, Config{Recursive: true})
	require.NoError(t, w.Start(context.Background(), []string{dir}))

	target := filepath.Join(sub, "icon.png")
	require.NoError(t, os.WriteFile(target, []byte("png"), 0600))

	ev, ok := waitEvent(t, w, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, target, ev.Path)
}

func TestCloseIdempotent(t *testing.T) {
	w, err := New(Config{}, logger.Noop())
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Start(context.Background(), []string{t.TempDir()}), ErrWatcherClosed)

	_, open := <-w.Events()
	assert.False(t, open)
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "WRITE", OpWrite.String())
	assert.Equal(t, "UNKNOWN", Op(0).String())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, filepath.Join(home, ".config"), ExpandHome("~/.config"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
}
