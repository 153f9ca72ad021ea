package devloop

import (
	"context"
	"path/filepath"

	"github.com/thaw-dev/thaw-cli/internal/devcontext"
	"github.com/thaw-dev/thaw-cli/internal/logging"
	"github.com/thaw-dev/thaw-cli/internal/manifest"
	"github.com/thaw-dev/thaw-cli/internal/pipeline"
	"github.com/thaw-dev/thaw-cli/internal/watcher"
)

// handleBatch classifies one ChangeBatch and dispatches the minimum rebuild
// sufficient for it, checked in order: index-only, then asset-only, then
// full.
func (l *Loop) handleBatch(ctx context.Context, batch watcher.ChangeBatch) {
	var err error
	switch {
	case l.isIndexOnly(batch):
		err = l.rebuildIndexOnly()
	case l.isAssetOnly(batch):
		err = l.rebuildAssetsOnly(batch)
	default:
		err = l.rebuildFull(ctx)
	}

	logging.Send(l.ctx.Logger, logging.Message{Kind: logging.KindPageReload, Text: "rebuild complete", Err: err})

	if err != nil {
		logging.Send(l.ctx.Logger, logging.Message{Kind: logging.KindError, Text: "rebuild failed", Err: err})
		return
	}
	l.bus.Publish()
}

func (l *Loop) isIndexOnly(batch watcher.ChangeBatch) bool {
	if l.mode != devcontext.CSR || len(batch) != 1 {
		return false
	}
	return batch[0] == filepath.Join(l.ctx.CWD, "index.html")
}

func (l *Loop) isAssetOnly(batch watcher.ChangeBatch) bool {
	_, ok := l.manifest.AssetSubset(batch)
	return ok
}

func (l *Loop) rebuildIndexOnly() error {
	outDir := l.ctx.ClientOutDir(devcontext.CSR)
	return l.pipeline.BuildIndexHTML(outDir, l.pkg, l.pipeline.DevMode)
}

func (l *Loop) rebuildAssetsOnly(batch watcher.ChangeBatch) error {
	subset, _ := l.manifest.AssetSubset(batch)
	destDir := l.ctx.ClientAssetsDir(l.mode)

	updated := make([]manifest.Asset, len(l.manifest.Assets()))
	copy(updated, l.manifest.Assets())
	bySource := make(map[string]int, len(updated))
	for i, a := range updated {
		bySource[a.SourcePath] = i
	}

	for _, a := range subset {
		reprocessed, err := pipeline.Reprocess(a, destDir)
		if err != nil {
			return err
		}
		updated[bySource[a.SourcePath]] = reprocessed
	}

	l.manifest.Replace(updated)
	return nil
}

func (l *Loop) rebuildFull(ctx context.Context) error {
	oldSources := l.manifest.Sources()

	var result *pipeline.Result
	var err error
	if l.mode == devcontext.SSR {
		if l.backend != nil {
			l.backend.Stop()
		}
		result, err = l.pipeline.BuildSSR(ctx)
	} else {
		result, err = l.pipeline.BuildCSR(ctx)
	}
	if err != nil {
		return err
	}
	l.manifest = result.Manifest

	for _, src := range oldSources {
		_ = l.watcher.Remove(src)
	}
	for _, src := range l.manifest.Sources() {
		_ = l.watcher.Add(src)
	}

	if l.mode == devcontext.SSR {
		return l.startBackend(ctx)
	}
	return nil
}
