// Package devloop implements the supervisor tying the watcher, build
// pipeline, dev servers, reload bus, and (SSR) backend supervisor together.
// A change batch is classified deterministically into one of three
// rebuild paths: index-only, asset-only, or full.
package devloop

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/thaw-dev/thaw-cli/internal/backend"
	"github.com/thaw-dev/thaw-cli/internal/config"
	"github.com/thaw-dev/thaw-cli/internal/devcontext"
	"github.com/thaw-dev/thaw-cli/internal/devserver"
	"github.com/thaw-dev/thaw-cli/internal/logging"
	"github.com/thaw-dev/thaw-cli/internal/manifest"
	"github.com/thaw-dev/thaw-cli/internal/pipeline"
	"github.com/thaw-dev/thaw-cli/internal/reloadbus"
	"github.com/thaw-dev/thaw-cli/internal/watcher"
	"github.com/thaw-dev/thaw-cli/internal/wshub"
)

// Loop owns the watcher, the asset manifest, the reload bus, and (SSR) the
// backend supervisor.
type Loop struct {
	ctx      *devcontext.Context
	mode     devcontext.ServerMode
	pipeline *pipeline.Pipeline
	watcher  *watcher.Watcher
	bus      *reloadbus.Bus
	hub      *wshub.Hub
	backend  *backend.Supervisor // nil in CSR mode

	manifest      *manifest.Manifest
	pkg           string
	serverExePath string // SSR only; the executable BuildSSR actually produced
}

// New builds a Loop for mode, wiring a fresh pipeline, watcher, reload bus,
// and (SSR) backend supervisor.
func New(ctx *devcontext.Context, mode devcontext.ServerMode, extractor pipeline.Extractor, devMode bool) (*Loop, error) {
	w, err := watcher.New(watcher.DefaultDebounce, ctx.Config.Server.Watch.Ignored)
	if err != nil {
		return nil, err
	}

	bus := reloadbus.New()
	l := &Loop{
		ctx:      ctx,
		mode:     mode,
		pipeline: &pipeline.Pipeline{Ctx: ctx, Extractor: extractor, DevMode: devMode},
		watcher:  w,
		bus:      bus,
		hub:      wshub.New(bus),
	}
	if mode == devcontext.SSR {
		l.backend = backend.New()
	}
	return l, nil
}

// Run executes the initialization sequence, starts the dev server(s), and
// then blocks servicing the watcher's event loop until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.initialBuild(ctx); err != nil {
		return err
	}

	if err := l.startWatching(); err != nil {
		return err
	}
	go l.watcher.Run(ctx)

	srv := l.startServer()
	defer srv.Close()

	if l.mode == devcontext.SSR {
		if err := l.startBackend(ctx); err != nil {
			logging.Send(l.ctx.Logger, logging.Message{Kind: logging.KindError, Text: "starting backend", Err: err})
		}
	}

	logging.Send(l.ctx.Logger, logging.Message{Kind: logging.KindInfo, Text: "init build finished"})

	for {
		select {
		case <-ctx.Done():
			if l.backend != nil {
				l.backend.Stop()
			}
			return nil
		case batch, ok := <-l.watcher.Events():
			if !ok {
				return nil
			}
			l.handleBatch(ctx, batch)
		}
	}
}

func (l *Loop) initialBuild(ctx context.Context) error {
	pkg, err := pipeline.PackageName(l.ctx.CWD)
	if err != nil {
		return err
	}
	l.pkg = pkg

	var result *pipeline.Result
	if l.mode == devcontext.SSR {
		result, err = l.pipeline.BuildSSR(ctx)
	} else {
		result, err = l.pipeline.BuildCSR(ctx)
	}
	if err != nil {
		return err
	}
	l.manifest = result.Manifest
	l.serverExePath = result.ServerExePath
	return nil
}

func (l *Loop) startWatching() error {
	if err := l.watcher.AddRecursive(filepath.Join(l.ctx.CWD, "src")); err != nil {
		return err
	}
	if l.mode == devcontext.CSR {
		if err := l.watcher.Add(filepath.Join(l.ctx.CWD, "index.html")); err != nil {
			return err
		}
	}
	for _, src := range l.manifest.Sources() {
		_ = l.watcher.Add(src)
	}
	for _, p := range l.ctx.Config.Server.Watch.Paths {
		_ = l.watcher.AddRecursive(filepath.Join(l.ctx.CWD, p.Path))
	}
	return nil
}

func (l *Loop) startServer() *http.Server {
	var handler http.Handler
	if l.mode == devcontext.SSR {
		handler = devserver.NewSSR(l.ctx, l.hub).Handler()
	} else {
		handler = devserver.NewCSR(l.ctx, l.hub).Handler()
	}

	addr := l.ctx.Config.Server.Host + ":" + strconv.FormatUint(uint64(l.ctx.Config.Server.Port), 10)
	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}

func (l *Loop) startBackend(ctx context.Context) error {
	return l.backend.Start(ctx, backend.Options{
		ExePath: l.serverExePath,
		Dir:     l.ctx.CWD,
		Package: l.pkg,
		Port:    int(l.ctx.Config.Server.Port),
		EnvDir:  l.ctx.Config.EnvDir,
		EnvMode: config.EnvMode(false),
	})
}
