package devserver

import (
	"net/http"
	"net/http/httputil"
	"sync"

	"github.com/thaw-dev/thaw-cli/internal/config"
	"github.com/thaw-dev/thaw-cli/internal/devcontext"
	"github.com/thaw-dev/thaw-cli/internal/wshub"
)

// SSRServer routes GET requests to the built client tree or public-dir when
// the path exists on disk, and everything else (including all non-GET
// requests) to the reverse proxy in front of the supervised backend.
type SSRServer struct {
	ctx  *devcontext.Context
	hub  *wshub.Hub
	mu   sync.RWMutex
	proxy *httputil.ReverseProxy
}

// NewSSR builds an SSRServer bound to ctx's client output tree, public-dir,
// and the configured backend URL / proxy rules.
func NewSSR(ctx *devcontext.Context, hub *wshub.Hub) *SSRServer {
	s := &SSRServer{ctx: ctx, hub: hub}
	s.rebuildProxy(ctx.Config.Server.BackendURL, ctx.Config.Server.Proxy)
	return s
}

// rebuildProxy replaces the proxy target, for when proxy rules change at
// reload (currently static per process lifetime, but kept swappable).
func (s *SSRServer) rebuildProxy(backendURL string, rules []config.ProxyRule) {
	proxy := newReverseProxy(backendURL, rules)
	if s.ctx.HTTPClient != nil {
		proxy.Transport = s.ctx.HTTPClient.Transport
	}
	s.mu.Lock()
	s.proxy = proxy
	s.mu.Unlock()
}

// Handler returns the http.Handler implementing the SSR routing contract,
// including `/live_reload`.
func (s *SSRServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/live_reload", s.hub.ServeCargoLeptos)
	mux.HandleFunc("/", s.route)
	return mux
}

func (s *SSRServer) route(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		outDir := s.ctx.ClientOutDir(devcontext.SSR)
		if path, ok := resolveUnderRoot(outDir, r.URL.Path); ok && fileExists(path) {
			serveFileWithVariants(w, r, path)
			return
		}
		publicDir := s.ctx.PublicDir()
		if path, ok := resolveUnderRoot(publicDir, r.URL.Path); ok && fileExists(path) {
			serveFileWithVariants(w, r, path)
			return
		}
	}

	s.mu.RLock()
	proxy := s.proxy
	s.mu.RUnlock()
	proxy.ServeHTTP(w, r)
}
