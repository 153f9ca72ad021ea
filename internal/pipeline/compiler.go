// Package pipeline drives the multi-stage build: native compile, WASM
// post-processing, asset extraction, and artifact layout.
package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/thaw-dev/thaw-cli/internal/logging"
)

// BuildStageError wraps a compiler or tool failure, tagged with the stage
// that produced it.
type BuildStageError struct {
	Stage string
	Err   error
}

func (e *BuildStageError) Error() string {
	return fmt.Sprintf("build stage %q failed: %v", e.Stage, e.Err)
}

func (e *BuildStageError) Unwrap() error { return e.Err }

// compilerMessage mirrors the subset of `cargo build --message-format=json`
// messages the compiler invocation contract requires: an artifact record (to
// learn the produced executable path), a free-form diagnostic record, and the
// build-finished record.
type compilerMessage struct {
	Reason      string `json:"reason"`
	ExecutablePath *string `json:"executable,omitempty"`
	Message     json.RawMessage `json:"message,omitempty"`
	Success     *bool  `json:"success,omitempty"`
}

// CompileOptions configures one native-compiler invocation.
type CompileOptions struct {
	Dir      string
	Command  string
	Args     []string
	Env      []string
	Logger   chan<- logging.Message
}

// CompileResult is the outcome of a native compile: the candidate executable
// path ("last artifact wins" per the compiler invocation contract) plus
// whether the compiler reported overall success.
type CompileResult struct {
	ExecutablePath string
	Success        bool

	buildFailed error
}

// allowedCompilers is the command allowlist: only these binaries may be
// invoked by the pipeline, guarding against argument injection via a
// configured build command.
var allowedCompilers = map[string]bool{
	"cargo":         true,
	"wasm-bindgen":  true,
	"wasm-opt":      true,
}

func validateCommand(name string) error {
	if !allowedCompilers[name] {
		return fmt.Errorf("command %q is not on the allowlist", name)
	}
	return nil
}

// Compile invokes the native compiler with a message-format flag, multiplexes
// stdout/stderr line-by-line and classifies each line. Artifact messages
// record the candidate output without being logged (last one
// wins), compiler-message lines forward as diagnostics, plain text lines are
// classified by prefix, and a build-finished message with success=false
// fails the stage.
func Compile(ctx context.Context, opts CompileOptions) (*CompileResult, error) {
	if err := validateCommand(opts.Command); err != nil {
		return nil, &BuildStageError{Stage: "compile", Err: err}
	}

	cmd := exec.CommandContext(ctx, opts.Command, opts.Args...)
	cmd.Dir = opts.Dir
	if opts.Env != nil {
		cmd.Env = opts.Env
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &BuildStageError{Stage: "compile", Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &BuildStageError{Stage: "compile", Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &BuildStageError{Stage: "compile", Err: err}
	}

	result := &CompileResult{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); consumeStream(stdout, opts.Logger, result, &mu) }()
	go func() { defer wg.Done(); consumeStream(stderr, opts.Logger, result, &mu) }()
	wg.Wait()

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return nil, &BuildStageError{Stage: "compile", Err: ctx.Err()}
	}
	if waitErr != nil {
		return nil, &BuildStageError{Stage: "compile", Err: waitErr}
	}
	if result.buildFailed != nil {
		return nil, &BuildStageError{Stage: "compile", Err: result.buildFailed}
	}
	if !result.Success && result.ExecutablePath == "" {
		// No machine-readable "build finished" seen and nothing produced:
		// the compiler exited zero but never told us where its output is.
		return nil, &BuildStageError{Stage: "compile", Err: fmt.Errorf("build produced no artifact")}
	}
	return result, nil
}

func consumeStream(r io.Reader, logger chan<- logging.Message, result *CompileResult, mu *sync.Mutex) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		handleLine(line, logger, result, mu)
	}
}

func handleLine(line string, logger chan<- logging.Message, result *CompileResult, mu *sync.Mutex) {
	trimmed := strings.TrimSpace(line)
	var msg compilerMessage
	if trimmed != "" && trimmed[0] == '{' && json.Unmarshal([]byte(trimmed), &msg) == nil && msg.Reason != "" {
		switch msg.Reason {
		case "compiler-artifact":
			if msg.ExecutablePath != nil && *msg.ExecutablePath != "" {
				mu.Lock()
				result.ExecutablePath = *msg.ExecutablePath
				mu.Unlock()
			}
		case "compiler-message":
			logging.Send(logger, logging.Message{Kind: logging.KindDiagnostic, Text: string(msg.Message)})
		case "build-finished":
			mu.Lock()
			result.Success = msg.Success == nil || *msg.Success
			mu.Unlock()
			if msg.Success != nil && !*msg.Success {
				buildErr := fmt.Errorf("build failed")
				mu.Lock()
				result.buildFailed = buildErr
				mu.Unlock()
				logging.Send(logger, logging.Message{Kind: logging.KindBuildFinished, Text: "build failed", Err: buildErr})
			}
		}
		return
	}

	kind := logging.ClassifyTextLine(line)
	logging.Send(logger, logging.Message{Kind: kind, Text: line})
}
