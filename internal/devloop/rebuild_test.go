package devloop

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thaw-dev/thaw-cli/internal/config"
	"github.com/thaw-dev/thaw-cli/internal/devcontext"
	"github.com/thaw-dev/thaw-cli/internal/manifest"
	"github.com/thaw-dev/thaw-cli/internal/pipeline"
	"github.com/thaw-dev/thaw-cli/internal/watcher"
)

func newTestLoop(t *testing.T, mode devcontext.ServerMode) *Loop {
	t.Helper()
	cwd := t.TempDir()
	cfg, err := config.Load(cwd)
	require.NoError(t, err)
	ctx := devcontext.New(cfg, cwd, nil)
	return &Loop{
		ctx:      ctx,
		mode:     mode,
		pipeline: &pipeline.Pipeline{Ctx: ctx},
	}
}

func TestIsIndexOnlyRequiresExactSingleFileBatchInCSR(t *testing.T) {
	l := newTestLoop(t, devcontext.CSR)
	batch := watcher.ChangeBatch{filepath.Join(l.ctx.CWD, "index.html")}
	assert.True(t, l.isIndexOnly(batch))

	assert.False(t, l.isIndexOnly(watcher.ChangeBatch{filepath.Join(l.ctx.CWD, "index.html"), filepath.Join(l.ctx.CWD, "src/main.rs")}))
}

func TestIsIndexOnlyFalseInSSR(t *testing.T) {
	l := newTestLoop(t, devcontext.SSR)
	batch := watcher.ChangeBatch{filepath.Join(l.ctx.CWD, "index.html")}
	assert.False(t, l.isIndexOnly(batch))
}

func TestIsAssetOnlyRequiresEveryPathToBeAKnownAsset(t *testing.T) {
	l := newTestLoop(t, devcontext.CSR)
	l.manifest = manifest.New([]manifest.Asset{
		{SourcePath: "/proj/app.css", OutputPath: "app.abc123.css"},
	})

	assert.True(t, l.isAssetOnly(watcher.ChangeBatch{"/proj/app.css"}))
	assert.False(t, l.isAssetOnly(watcher.ChangeBatch{"/proj/app.css", "/proj/main.rs"}))
}

func TestRebuildAssetsOnlyRewritesTouchedAsset(t *testing.T) {
	l := newTestLoop(t, devcontext.CSR)
	destDir := filepath.Join(l.ctx.CWD, "dist", "assets")
	require.NoError(t, os.MkdirAll(destDir, 0o755))

	cssSrc := filepath.Join(l.ctx.CWD, "app.css")
	require.NoError(t, os.WriteFile(cssSrc, []byte("body{color:red}"), 0o644))

	l.manifest = manifest.New([]manifest.Asset{
		{SourcePath: cssSrc, OutputPath: "app.aaaaaaaaaa.css"},
	})

	err := l.rebuildAssetsOnly(watcher.ChangeBatch{cssSrc})
	require.NoError(t, err)

	assets := l.manifest.Assets()
	require.Len(t, assets, 1)
	assert.FileExists(t, filepath.Join(destDir, assets[0].OutputPath))
}
