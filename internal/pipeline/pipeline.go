package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thaw-dev/thaw-cli/internal/devcontext"
	"github.com/thaw-dev/thaw-cli/internal/manifest"
)

// Pipeline drives one end-to-end build for a given Context. Extractor is
// supplied by the caller since asset discovery is crate-specific; a nil
// Extractor is treated as "no assets".
type Pipeline struct {
	Ctx       *devcontext.Context
	Extractor Extractor
	// DevMode controls whether BuildCSR injects the live-reload client
	// script tag into index.html; false for `thaw build`, true for `thaw serve`.
	DevMode bool
}

// New builds a Pipeline bound to ctx.
func New(ctx *devcontext.Context, extractor Extractor) *Pipeline {
	return &Pipeline{Ctx: ctx, Extractor: extractor}
}

// Result is the outcome of a full build.
type Result struct {
	Manifest       *manifest.Manifest
	ServerExePath  string // set only for SSR
}

// BuildCSR runs the full client-side-rendering pipeline: compile to wasm,
// bindgen with target "web", wasm-opt, extract+transform assets, and lay the
// artifacts out as dist/index.html + dist/assets/....
func (p *Pipeline) BuildCSR(ctx context.Context) (*Result, error) {
	outDir := p.Ctx.ClientOutDir(devcontext.CSR)
	if err := resetDir(outDir); err != nil {
		return nil, &BuildStageError{Stage: "layout", Err: err}
	}

	pkg, err := PackageName(p.Ctx.CWD)
	if err != nil {
		return nil, err
	}

	if _, err := p.compileAndOptimize(ctx, p.Ctx.ClientAssetsDir(devcontext.CSR)); err != nil {
		return nil, err
	}

	m, err := p.extractAndTransform(p.Ctx.ClientAssetsDir(devcontext.CSR))
	if err != nil {
		return nil, err
	}

	if !p.DevMode {
		if err := copyPublicDir(p.Ctx.PublicDir(), outDir); err != nil {
			return nil, &BuildStageError{Stage: "layout", Err: err}
		}
	}

	if err := p.BuildIndexHTML(outDir, pkg, p.DevMode); err != nil {
		return nil, err
	}

	return &Result{Manifest: m}, nil
}

// BuildSSR runs the full server-side-rendering pipeline: compiles the
// server binary natively, compiles the client half to wasm with bindgen
// target "web", extracts+transforms assets under the client root, and lays
// artifacts out as dist/client/... + dist/server/<exe>.
func (p *Pipeline) BuildSSR(ctx context.Context) (*Result, error) {
	outDir := p.Ctx.OutDir
	if err := resetDir(outDir); err != nil {
		return nil, &BuildStageError{Stage: "layout", Err: err}
	}
	clientDir := p.Ctx.ClientOutDir(devcontext.SSR)
	if err := os.MkdirAll(clientDir, 0o755); err != nil {
		return nil, &BuildStageError{Stage: "layout", Err: err}
	}

	serverResult, err := Compile(ctx, CompileOptions{
		Dir:     p.Ctx.CWD,
		Command: "cargo",
		Args:    []string{"build", "--message-format=json", "--bin", "server"},
		Logger:  p.Ctx.Logger,
	})
	if err != nil {
		return nil, err
	}

	if _, err := p.compileAndOptimize(ctx, p.Ctx.ClientAssetsDir(devcontext.SSR)); err != nil {
		return nil, err
	}

	m, err := p.extractAndTransform(p.Ctx.ClientAssetsDir(devcontext.SSR))
	if err != nil {
		return nil, err
	}

	serverExeDir := p.Ctx.ServerExeDir()
	if err := os.MkdirAll(serverExeDir, 0o755); err != nil {
		return nil, &BuildStageError{Stage: "layout", Err: err}
	}
	destExe := filepath.Join(serverExeDir, filepath.Base(serverResult.ExecutablePath))
	if err := copyFile(serverResult.ExecutablePath, destExe); err != nil {
		return nil, &BuildStageError{Stage: "layout", Err: err}
	}

	if !p.DevMode {
		if err := copyPublicDir(p.Ctx.PublicDir(), clientDir); err != nil {
			return nil, &BuildStageError{Stage: "layout", Err: err}
		}
	}

	return &Result{Manifest: m, ServerExePath: destExe}, nil
}

// compileAndOptimize runs the native wasm32 compile, wasm-bindgen with
// target "web", and wasm-opt -Oz, leaving the final <package>_bg.wasm and
// <package>.js glue in clientOutDir. It returns the final optimized .wasm path.
func (p *Pipeline) compileAndOptimize(ctx context.Context, clientOutDir string) (string, error) {
	compileResult, err := Compile(ctx, CompileOptions{
		Dir:     p.Ctx.CWD,
		Command: "cargo",
		Args:    []string{"build", "--message-format=json", "--target=wasm32-unknown-unknown", "--bin", "client"},
		Logger:  p.Ctx.Logger,
	})
	if err != nil {
		return "", err
	}

	bindgenOut := p.Ctx.WasmBindgenDir
	if err := os.MkdirAll(bindgenOut, 0o755); err != nil {
		return "", &BuildStageError{Stage: "wasm-bindgen", Err: err}
	}
	if err := RunBindgen(ctx, BindgenOptions{
		WasmPath:     compileResult.ExecutablePath,
		OutDir:       bindgenOut,
		Target:       "web",
		NoTypescript: true,
		Logger:       p.Ctx.Logger,
	}); err != nil {
		return "", err
	}

	stem := trimExt(filepath.Base(compileResult.ExecutablePath))
	bindgenWasm := filepath.Join(bindgenOut, stem+"_bg.wasm")
	bindgenJS := filepath.Join(bindgenOut, stem+".js")

	pkg, err := PackageName(p.Ctx.CWD)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(clientOutDir, 0o755); err != nil {
		return "", &BuildStageError{Stage: "layout", Err: err}
	}
	finalWasm := filepath.Join(clientOutDir, pkg+"_bg.wasm")
	if err := RunOpt(ctx, OptOptions{InPath: bindgenWasm, OutPath: finalWasm, Logger: p.Ctx.Logger}); err != nil {
		return "", err
	}
	if err := copyFile(bindgenJS, filepath.Join(clientOutDir, pkg+".js")); err != nil {
		return "", &BuildStageError{Stage: "layout", Err: err}
	}

	return finalWasm, nil
}

func (p *Pipeline) extractAndTransform(assetsDir string) (*manifest.Manifest, error) {
	if p.Extractor == nil {
		return manifest.New(nil), nil
	}
	extracted, err := p.Extractor.Extract()
	if err != nil {
		return nil, &BuildStageError{Stage: "asset-extract", Err: err}
	}
	return ProcessAssets(extracted, assetsDir, p.Ctx.Logger)
}

// resetDir clears and recreates dir, implementing the "clear-then-recreate
// out_dir" artifact-layout invariant.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// copyPublicDir copies every file under publicDir into destDir, the
// "public-dir is copied verbatim into the output root" passthrough rule.
func copyPublicDir(publicDir, destDir string) error {
	info, err := os.Stat(publicDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("public-dir %q is not a directory", publicDir)
	}
	return filepath.Walk(publicDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(publicDir, path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		return copyFile(path, filepath.Join(destDir, rel))
	})
}

func trimExt(name string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)]
}
