package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"

	"github.com/thaw-dev/thaw-cli/internal/logging"
)

// wasmOptFeatures is the fixed feature set the pipeline always passes to
// wasm-opt: reference-types and bulk-memory match what wasm-bindgen emits,
// mutable-globals and non-trapping-float-to-int match common Rust/LLVM
// codegen, and debuginfo is kept through -Oz so symbol names survive for
// source maps.
var wasmOptFeatures = []string{
	"--enable-reference-types",
	"--enable-bulk-memory",
	"--enable-mutable-globals",
	"--enable-nontrapping-float-to-int",
	"--debuginfo",
}

// BindgenOptions configures one wasm-bindgen invocation.
type BindgenOptions struct {
	WasmPath  string
	OutDir    string
	Target    string // "web" (CSR) or "bundler"/"no-modules" per topology
	NoTypescript bool
	Logger    chan<- logging.Message
}

// RunBindgen runs wasm-bindgen against a compiled .wasm artifact, emitting
// the JS glue and processed .wasm into opts.OutDir.
func RunBindgen(ctx context.Context, opts BindgenOptions) error {
	if err := validateCommand("wasm-bindgen"); err != nil {
		return &BuildStageError{Stage: "wasm-bindgen", Err: err}
	}
	args := []string{opts.WasmPath, "--out-dir", opts.OutDir, "--target", opts.Target}
	if opts.NoTypescript {
		args = append(args, "--no-typescript")
	}
	return runTool(ctx, "wasm-bindgen", args, opts.Logger, "wasm-bindgen")
}

// OptOptions configures one wasm-opt invocation.
type OptOptions struct {
	InPath  string
	OutPath string
	Logger  chan<- logging.Message
}

// RunOpt runs wasm-opt -Oz with the fixed feature set over a bindgen'd
// .wasm, writing the optimized binary to opts.OutPath.
func RunOpt(ctx context.Context, opts OptOptions) error {
	if err := validateCommand("wasm-opt"); err != nil {
		return &BuildStageError{Stage: "wasm-opt", Err: err}
	}
	args := append([]string{opts.InPath, "-Oz", "-o", opts.OutPath}, wasmOptFeatures...)
	return runTool(ctx, "wasm-opt", args, opts.Logger, "wasm-opt")
}

// runTool is the shared subprocess-invocation idiom for the post-processing
// tools: combined-output, line-by-line classification into the logger
// channel, non-zero exit becomes a BuildStageError.
func runTool(ctx context.Context, command string, args []string, logger chan<- logging.Message, stage string) error {
	cmd := exec.CommandContext(ctx, command, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &BuildStageError{Stage: stage, Err: err}
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return &BuildStageError{Stage: stage, Err: err}
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		logging.Send(logger, logging.Message{Kind: logging.ClassifyTextLine(line), Text: line})
	}

	if err := cmd.Wait(); err != nil {
		return &BuildStageError{Stage: stage, Err: fmt.Errorf("%s: %w", command, err)}
	}
	return nil
}
