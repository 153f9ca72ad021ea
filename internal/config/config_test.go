package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.False(t, cfg.Release)
	assert.Equal(t, "public", cfg.PublicDir)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.EqualValues(t, 6321, cfg.Server.Port)
	assert.False(t, cfg.Server.Open)
	assert.Equal(t, "dist", cfg.Build.OutDir)
	assert.Equal(t, "assets", cfg.Build.AssetsDir)
	assert.True(t, cfg.Build.AssetsManganis)
	assert.Equal(t, "http://127.0.0.1:3000", cfg.Server.BackendURL)
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	toml := `
release = true
public-dir = "static"
env-dir = false

[server]
host = "0.0.0.0"
port = 8080
open = true

[[server.proxy]]
proxy = "/api"
target = "http://example.com:8080"
change-origin = true

[build]
out-dir = "build"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Thaw.toml"), []byte(toml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.True(t, cfg.Release)
	assert.Equal(t, "static", cfg.PublicDir)
	assert.True(t, cfg.EnvDirOff)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.EqualValues(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.Open)
	require.Len(t, cfg.Server.Proxy, 1)
	assert.Equal(t, "/api", cfg.Server.Proxy[0].Proxy)
	assert.True(t, cfg.Server.Proxy[0].ChangeOrigin)
	assert.Equal(t, "build", cfg.Build.OutDir)
	assert.Equal(t, "assets", cfg.Build.AssetsDir)
}

func TestLoadRejectsBadPort(t *testing.T) {
	dir := t.TempDir()
	toml := "[server]\nport = 70000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Thaw.toml"), []byte(toml), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadRejectsIncompleteProxyRule(t *testing.T) {
	dir := t.TempDir()
	toml := "[[server.proxy]]\nproxy = \"/api\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Thaw.toml"), []byte(toml), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestEnvMode(t *testing.T) {
	assert.Equal(t, "production", EnvMode(true))
	assert.Equal(t, "development", EnvMode(false))
}
