package envfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadLayersOverrideInOrder(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, ".env", "A=1\nB=1\n")
	write(t, dir, ".env.local", "B=2\n")
	write(t, dir, ".env.development", "C=3\n")

	vars, err := Load(dir, "development")
	require.NoError(t, err)

	assert.Equal(t, "1", vars["A"])
	assert.Equal(t, "2", vars["B"])
	assert.Equal(t, "3", vars["C"])
}

func TestLoadMissingDirIsEmpty(t *testing.T) {
	vars, err := Load(filepath.Join(t.TempDir(), "nope"), "development")
	require.NoError(t, err)
	assert.Empty(t, vars)
}

func TestMergeLaterWins(t *testing.T) {
	base := map[string]string{"A": "1", "B": "1"}
	result := Merge(base, map[string]string{"B": "2"}, map[string]string{"C": "3"})
	assert.Equal(t, "1", result["A"])
	assert.Equal(t, "2", result["B"])
	assert.Equal(t, "3", result["C"])
	assert.Equal(t, "1", base["B"], "Merge must not mutate base")
}

func TestToEnvironUserOverridesParent(t *testing.T) {
	t.Setenv("THAW_TEST_VAR", "parent")
	env := ToEnviron(map[string]string{"THAW_TEST_VAR": "child"})

	found := false
	for _, kv := range env {
		if kv == "THAW_TEST_VAR=child" {
			found = true
		}
		assert.NotEqual(t, "THAW_TEST_VAR=parent", kv)
	}
	assert.True(t, found)
}
