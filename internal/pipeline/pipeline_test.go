package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetDirClearsExistingContent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "stale.txt"), []byte("x"), 0o644))

	require.NoError(t, resetDir(target))

	entries, err := os.ReadDir(target)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCopyPublicDirIsOptional(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, copyPublicDir(filepath.Join(dir, "nonexistent-public"), filepath.Join(dir, "out")))
}

func TestCopyPublicDirCopiesFilesPreservingRelativePath(t *testing.T) {
	dir := t.TempDir()
	public := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(filepath.Join(public, "icons"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(public, "favicon.ico"), []byte("icon"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(public, "icons", "a.svg"), []byte("svg"), 0o644))

	out := filepath.Join(dir, "out")
	require.NoError(t, copyPublicDir(public, out))

	assert.FileExists(t, filepath.Join(out, "favicon.ico"))
	assert.FileExists(t, filepath.Join(out, "icons", "a.svg"))
}

func TestTrimExt(t *testing.T) {
	assert.Equal(t, "client", trimExt("client.wasm"))
	assert.Equal(t, "client", trimExt("client"))
}
