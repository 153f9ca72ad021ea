package devserver

import (
	"net/http"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/thaw-dev/thaw-cli/internal/devcontext"
	"github.com/thaw-dev/thaw-cli/internal/wshub"
)

// CSRServer is the static file server for the client-side-rendering
// topology: out_dir first, public_dir fallback, index.html SPA fallback.
type CSRServer struct {
	ctx *devcontext.Context
	hub *wshub.Hub
}

// NewCSR builds a CSRServer bound to ctx's OutDir and PublicDir.
func NewCSR(ctx *devcontext.Context, hub *wshub.Hub) *CSRServer {
	return &CSRServer{ctx: ctx, hub: hub}
}

// Handler returns the http.Handler implementing the CSR routing contract,
// including the `/__thaw_cli__` WebSocket endpoint.
func (s *CSRServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/__thaw_cli__", s.hub.ServeNative)
	mux.HandleFunc("/", s.serveFile)
	return mux
}

func (s *CSRServer) serveFile(w http.ResponseWriter, r *http.Request) {
	outDir := s.ctx.ClientOutDir(devcontext.CSR)

	if path, ok := resolveUnderRoot(outDir, r.URL.Path); ok && fileExists(path) {
		serveFileWithVariants(w, r, path)
		return
	}

	publicDir := s.ctx.PublicDir()
	if path, ok := resolveUnderRoot(publicDir, r.URL.Path); ok && fileExists(path) {
		serveFileWithVariants(w, r, path)
		return
	}

	serveFileWithVariants(w, r, filepath.Join(outDir, "index.html"))
}

// OpenBrowser opens the dev server's URL in the user's browser, honoring
// the BROWSER environment variable: "none" disables, empty uses the system
// default, any other value is an explicit browser command to invoke with
// the URL appended.
func OpenBrowser(url, browserEnv string) error {
	if browserEnv == "none" {
		return nil
	}
	if browserEnv != "" {
		return exec.Command(browserEnv, url).Start()
	}
	return openSystemDefault(url)
}

func openSystemDefault(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
