package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherEmitsBatchOnWrite(t *testing.T) {
	dir := t.TempDir()
	w, err := New(30*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Add(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("1"), 0o644))

	select {
	case batch := <-w.Events():
		assert.Contains(t, batch, file)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change batch")
	}
}

func TestWatcherIgnoreFiltersEmptyBatch(t *testing.T) {
	dir := t.TempDir()
	w, err := New(30*time.Millisecond, []string{"*.css"})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Add(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	file := filepath.Join(dir, "test.css")
	require.NoError(t, os.WriteFile(file, []byte("body{}"), 0o644))

	select {
	case batch := <-w.Events():
		t.Fatalf("expected no batch for ignored file, got %v", batch)
	case <-time.After(300 * time.Millisecond):
		// expected: ignored write never surfaces a batch
	}
}

func TestMatchesIgnoreMatchesDoubleStarSuffix(t *testing.T) {
	w, err := New(30*time.Millisecond, []string{"**/dist/*.css"})
	require.NoError(t, err)
	defer w.Close()

	assert.True(t, w.matchesIgnore(filepath.Join("project", "dist", "test.css")))
	assert.False(t, w.matchesIgnore(filepath.Join("project", "src", "test.css")))
}

func TestWatcherDedupesWithinBatch(t *testing.T) {
	dir := t.TempDir()
	w, err := New(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	file := filepath.Join(dir, "a.txt")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case batch := <-w.Events():
		count := 0
		for _, p := range batch {
			if p == file {
				count++
			}
		}
		assert.Equal(t, 1, count)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change batch")
	}
}
