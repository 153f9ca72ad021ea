// Package devcontext holds the process-wide immutable configuration and
// derived paths shared by every dev-loop component.
package devcontext

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/thaw-dev/thaw-cli/internal/config"
	"github.com/thaw-dev/thaw-cli/internal/logging"
)

// Context is immutable after New returns and is shared by reference across
// every goroutine in the process.
type Context struct {
	CWD            string
	TargetDir      string
	OutDir         string
	AssetsDir      string
	WasmBindgenDir string

	Config *config.Config
	Logger chan<- logging.Message

	InitTime   time.Time
	HTTPClient *http.Client
}

// New derives every path once from cfg and cwd. logger is the send side of
// the logging channel; the caller owns the receive side and its consumer
// goroutine.
func New(cfg *config.Config, cwd string, logger chan<- logging.Message) *Context {
	outDir := filepath.Join(cwd, cfg.Build.OutDir)
	return &Context{
		CWD:            cwd,
		TargetDir:      filepath.Join(cwd, "target"),
		OutDir:         outDir,
		AssetsDir:      filepath.Join(outDir, cfg.Build.AssetsDir),
		WasmBindgenDir: filepath.Join(cwd, "target", ".wasm-bindgen"),
		Config:         cfg,
		Logger:         logger,
		InitTime:       time.Now(),
		HTTPClient: &http.Client{
			// No client-side timeout: the backend request's own context
			// governs cancellation, the way a long-lived reverse proxy
			// client must for streaming/SSE-style responses.
		},
	}
}

// ClientOutDir is the CSR artifact root, or the client half of an SSR build.
func (c *Context) ClientOutDir(mode ServerMode) string {
	if mode == SSR {
		return filepath.Join(c.OutDir, "client")
	}
	return c.OutDir
}

// ClientAssetsDir is the assets directory under the client output root.
func (c *Context) ClientAssetsDir(mode ServerMode) string {
	if mode == SSR {
		return filepath.Join(c.OutDir, "client", c.Config.Build.AssetsDir)
	}
	return c.AssetsDir
}

// ServerExeDir is where the built SSR executable is copied to.
func (c *Context) ServerExeDir() string {
	return filepath.Join(c.OutDir, "server")
}

// PublicDir is the absolute path to the configured public-dir.
func (c *Context) PublicDir() string {
	return filepath.Join(c.CWD, c.Config.PublicDir)
}

// ServerMode selects between the CSR and SSR dev-server topologies.
type ServerMode int

const (
	CSR ServerMode = iota
	SSR
)

func (m ServerMode) String() string {
	if m == SSR {
		return "ssr"
	}
	return "csr"
}
