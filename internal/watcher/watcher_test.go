package watcher_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zjrosen/relayout/internal/config"
	"github.com/zjrosen/relayout/internal/watcher"
)

func watch(t *testing.T, path string) <-chan struct{} {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	changes, err := watcher.Watch(ctx, watcher.Config{Path: path, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	return changes
}

func requireChange(t *testing.T, changes <-chan struct{}, within time.Duration) {
	t.Helper()
	select {
	case _, ok := <-changes:
		require.True(t, ok, "channel closed")
	case <-time.After(within):
		t.Fatal("expected a change notification")
	}
}

func requireQuiet(t *testing.T, changes <-chan struct{}, quiet time.Duration) {
	t.Helper()
	select {
	case <-changes:
		t.Fatal("unexpected change notification")
	case <-time.After(quiet):
	}
}

func TestWatch_DebouncesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: false\n"), 0o644))
	changes := watch(t, path)

	for i := range 10 {
		data := fmt.Sprintf("layout:\n  expected_ratio: 0.%d\n", i+1)
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	requireChange(t, changes, 500*time.Millisecond)
	requireQuiet(t, changes, 150*time.Millisecond)
}

func TestWatch_SkipsIdenticalContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: false\n"), 0o644))
	changes := watch(t, path)

	require.NoError(t, os.WriteFile(path, []byte("debug: false\n"), 0o644))
	requireQuiet(t, changes, 200*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("debug: true\n"), 0o644))
	requireChange(t, changes, 500*time.Millisecond)
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("debug: false\n"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("initial"), 0o644))
	changes := watch(t, path)

	require.NoError(t, os.WriteFile(other, []byte("edited"), 0o644))
	requireQuiet(t, changes, 200*time.Millisecond)
}

func TestWatch_AtomicSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.WriteDefaultConfig(path))
	changes := watch(t, path)

	require.NoError(t, config.SaveExpectedRatio(path, 0.5))
	requireChange(t, changes, 500*time.Millisecond)
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: false\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := watcher.Watch(ctx, watcher.DefaultConfig(path))
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-changes:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	_, err := watcher.Watch(context.Background(), watcher.DefaultConfig(filepath.Join(t.TempDir(), "missing", "config.yaml")))
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("/etc/relayout/config.yaml")
	require.Equal(t, "/etc/relayout/config.yaml", cfg.Path)
	require.Equal(t, 250*time.Millisecond, cfg.Debounce)
}
