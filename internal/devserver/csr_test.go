package devserver

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thaw-dev/thaw-cli/internal/config"
	"github.com/thaw-dev/thaw-cli/internal/devcontext"
	"github.com/thaw-dev/thaw-cli/internal/reloadbus"
	"github.com/thaw-dev/thaw-cli/internal/wshub"
)

func newTestCtx(t *testing.T, cwd string) *devcontext.Context {
	t.Helper()
	cfg, err := config.Load(filepath.Join(cwd, "nonexistent"))
	require.NoError(t, err)
	return devcontext.New(cfg, cwd, nil)
}

func TestCSRServerServesOutDirFileOverSPAFallback(t *testing.T) {
	cwd := t.TempDir()
	ctx := newTestCtx(t, cwd)
	outDir := ctx.ClientOutDir(devcontext.CSR)
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "index.html"), []byte("<html>spa</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "app.js"), []byte("console.log(1)"), 0o644))

	hub := wshub.New(reloadbus.New())
	srv := NewCSR(ctx, hub)

	req := httptest.NewRequest(http.MethodGet, "/app.js", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "console.log(1)", rec.Body.String())
}

func TestCSRServerFallsBackToIndexHTMLForUnknownPath(t *testing.T) {
	cwd := t.TempDir()
	ctx := newTestCtx(t, cwd)
	outDir := ctx.ClientOutDir(devcontext.CSR)
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "index.html"), []byte("<html>spa</html>"), 0o644))

	hub := wshub.New(reloadbus.New())
	srv := NewCSR(ctx, hub)

	req := httptest.NewRequest(http.MethodGet, "/some/client/route", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "spa")
}

func TestOpenBrowserNoneDisables(t *testing.T) {
	assert.NoError(t, OpenBrowser("http://localhost:6321", "none"))
}
