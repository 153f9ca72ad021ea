// Package backend supervises the user-built SSR child process: exactly one
// instance at a time, restarted on every successful rebuild.
package backend

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"

	"github.com/thaw-dev/thaw-cli/internal/envfile"
)

// Options configures one backend start.
type Options struct {
	ExePath     string
	Dir         string
	Package     string
	Port        int
	EnvDir      string
	EnvMode     string
}

// DefaultEnv computes the fixed default environment injected into the SSR
// child. User env-file values are layered on top by Start, so they may
// override any of these.
func DefaultEnv(opts Options) map[string]string {
	return map[string]string{
		"LEPTOS_OUTPUT_NAME":          opts.Package,
		"LEPTOS_SITE_PKG_DIR":         "assets",
		"LEPTOS_WATCH":                "",
		"LEPTOS_RELOAD_EXTERNAL_PORT": strconv.Itoa(opts.Port),
		"LEPTOS_SITE_ADDR":            "127.0.0.1:3000",
	}
}

// Supervisor owns at most one running child at a time.
type Supervisor struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an idle Supervisor.
func New() *Supervisor {
	return &Supervisor{}
}

// Start stops any running child, then spawns opts.ExePath with the merged
// default+env-file environment. The previous child (if any) is fully
// stopped before the new one starts, so at most one child exists at a time.
func (s *Supervisor) Start(ctx context.Context, opts Options) error {
	s.Stop()

	envVars, err := envfile.Load(opts.EnvDir, opts.EnvMode)
	if err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}
	merged := envfile.Merge(DefaultEnv(opts), envVars)

	childCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(childCtx, opts.ExePath)
	cmd.Dir = opts.Dir
	cmd.Env = envfile.ToEnviron(merged)

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("starting backend child: %w", err)
	}

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	s.mu.Lock()
	s.cmd = cmd
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()
	return nil
}

// Stop cancels and waits for the current child, if any. It is a no-op if no
// child is running. Cancellation triggers kill via exec.CommandContext's
// contract, then Stop waits for the goroutine observing Wait to finish.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cmd = nil
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether a child is currently active.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd != nil
}

// PID returns the current child's process id, or 0 if none is running.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}
