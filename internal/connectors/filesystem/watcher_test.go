package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_EmitsNewFolder(t *testing.T) {
	inbox := t.TempDir()
	w := NewWatcher(inbox, 100*time.Millisecond)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches, err := w.Watch(ctx)
	require.NoError(t, err)

	go func() {
		dir := filepath.Join(inbox, "pregao-12-2025")
		_ = os.Mkdir(dir, 0o755)
		time.Sleep(30 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "edital.pdf"), []byte("%PDF"), 0o644)
		_ = os.WriteFile(filepath.Join(dir, "termo.pdf"), []byte("%PDF"), 0o644)
	}()

	select {
	case b := <-batches:
		assert.Equal(t, "pregao-12-2025", b.Name)
		assert.Equal(t, filepath.Join(inbox, "pregao-12-2025"), b.Dir)
		assert.Len(t, b.Documents, 2)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for batch")
	}
}

func TestWatcher_IgnoresFilesAndHiddenFolders(t *testing.T) {
	inbox := t.TempDir()
	w := NewWatcher(inbox, 50*time.Millisecond)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches, err := w.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(inbox, "loose.pdf"), []byte("%PDF"), 0o644))
	hidden := filepath.Join(inbox, ".tmp")
	require.NoError(t, os.Mkdir(hidden, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(hidden, "x.pdf"), []byte("%PDF"), 0o644))

	select {
	case b := <-batches:
		t.Fatalf("unexpected batch %s", b.Name)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_EmptyFolderSkipped(t *testing.T) {
	inbox := t.TempDir()
	w := NewWatcher(inbox, 50*time.Millisecond)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches, err := w.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.Mkdir(filepath.Join(inbox, "vazio"), 0o755))

	select {
	case b := <-batches:
		t.Fatalf("unexpected batch %s", b.Name)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_ClosesOnCancel(t *testing.T) {
	w := NewWatcher(t.TempDir(), 0)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	batches, err := w.Watch(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-batches:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel did not close after context cancellation")
	}
}

func TestWatcher_Errors(t *testing.T) {
	_, err := NewWatcher("/non/existent/path", 0).Watch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root path error")

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = NewWatcher(file, 0).Watch(context.Background())
	assert.Error(t, err)

	w := NewWatcher(t.TempDir(), 0)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	_, err = w.Watch(context.Background())
	assert.ErrorIs(t, err, ErrWatcherClosed)
}

func TestDebouncer_ResetAfterFireDeliversOnce(t *testing.T) {
	d := newDebouncer(time.Millisecond)
	defer d.stop()

	d.touch("lote-1")
	require.Eventually(t, func() bool { return d.pending.Load() == 1 }, time.Second, time.Millisecond)

	// The first callback is blocked on ready; a new event re-arms the timer.
	d.touch("lote-1")
	require.Eventually(t, func() bool { return d.pending.Load() == 2 }, time.Second, time.Millisecond)

	assert.True(t, d.fire(<-d.ready))
	assert.False(t, d.fire(<-d.ready))

	d.touch("lote-1")
	select {
	case dir := <-d.ready:
		t.Fatalf("unexpected delivery of %s", dir)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestDebouncer_StopReleasesCallbacks(t *testing.T) {
	d := newDebouncer(time.Millisecond)
	d.touch("a")
	d.touch("b")
	require.Eventually(t, func() bool { return d.pending.Load() == 2 }, time.Second, time.Millisecond)

	d.stop()
	assert.Eventually(t, func() bool { return d.pending.Load() == 0 }, time.Second, time.Millisecond)
}

func TestWatcher_CloseWhileBatchPending(t *testing.T) {
	inbox := t.TempDir()
	w := NewWatcher(inbox, 10*time.Millisecond)

	batches, err := w.Watch(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(inbox, "lote"), 0o755))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, w.Close())
	for range batches {
	}
}
