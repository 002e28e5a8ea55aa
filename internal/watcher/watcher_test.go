package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_SignalsOnLibraryWrite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "library.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("seed"), 0o600))

	cfg := DefaultConfig(dbPath)
	cfg.DebounceDur = 50 * time.Millisecond
	w, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	ch, err := w.Start()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(dbPath, []byte("changed"), 0o600))

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("expected change signal after library write")
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "library.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("seed"), 0o600))

	cfg := DefaultConfig(dbPath)
	cfg.DebounceDur = 100 * time.Millisecond
	w, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	ch, err := w.Start()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(dbPath, []byte{byte(i)}, 0o600))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("expected one signal for the burst")
	}

	select {
	case <-ch:
		t.Fatal("burst should collapse into a single signal")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "library.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("seed"), 0o600))

	w, err := New(DefaultConfig(dbPath))
	require.NoError(t, err)

	_, err = w.Start()
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop(), "second stop is a no-op")
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "library.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("seed"), 0o600))

	cfg := DefaultConfig(dbPath)
	cfg.DebounceDur = 50 * time.Millisecond
	w, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	ch, err := w.Start()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	select {
	case <-ch:
		t.Fatal("unrelated file must not trigger a signal")
	case <-time.After(300 * time.Millisecond):
	}
}
