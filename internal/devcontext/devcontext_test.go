package devcontext

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thaw-dev/thaw-cli/internal/config"
)

func testConfig() *config.Config {
	cfg, _ := config.Load(filepath.Join(string(filepath.Separator), "nonexistent-thaw-project-dir"))
	return cfg
}

func TestNewDerivesPaths(t *testing.T) {
	cfg := testConfig()
	ctx := New(cfg, "/proj", nil)

	assert.Equal(t, "/proj", ctx.CWD)
	assert.Equal(t, filepath.Join("/proj", "dist"), ctx.OutDir)
	assert.Equal(t, filepath.Join("/proj", "dist", "assets"), ctx.AssetsDir)
	assert.NotNil(t, ctx.HTTPClient)
}

func TestClientOutDirByMode(t *testing.T) {
	cfg := testConfig()
	ctx := New(cfg, "/proj", nil)

	assert.Equal(t, ctx.OutDir, ctx.ClientOutDir(CSR))
	assert.Equal(t, filepath.Join(ctx.OutDir, "client"), ctx.ClientOutDir(SSR))
}

func TestServerModeString(t *testing.T) {
	assert.Equal(t, "csr", CSR.String())
	assert.Equal(t, "ssr", SSR.String())
}
