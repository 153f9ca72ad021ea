package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageNameReadsCargoToml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[package]\nname = \"my-app\"\nversion = \"0.1.0\"\n"), 0o644))

	name, err := PackageName(dir)
	require.NoError(t, err)
	assert.Equal(t, "my-app", name)
}

func TestPackageNameMissingManifestIsManifestError(t *testing.T) {
	dir := t.TempDir()
	_, err := PackageName(dir)
	require.Error(t, err)
	var manifestErr *ManifestError
	assert.ErrorAs(t, err, &manifestErr)
}

func TestPackageNameMissingNameFieldIsManifestError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[package]\nversion = \"0.1.0\"\n"), 0o644))

	_, err := PackageName(dir)
	require.Error(t, err)
	var manifestErr *ManifestError
	assert.ErrorAs(t, err, &manifestErr)
}
