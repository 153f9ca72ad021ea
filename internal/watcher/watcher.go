// Package watcher provides debounced recursive filesystem watching.
//
// It wraps fsnotify with a debounce window that coalesces bursts of editor
// saves and multi-file refactors into a single ChangeBatch, applies
// ignore-glob filtering, and forwards only Create/Modify events to the
// consumer over a bounded channel.
package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the default debounce window: long enough to coalesce
// editor save storms, short enough to feel instant.
const DefaultDebounce = 500 * time.Millisecond

// ChangeBatch is a non-empty, order-preserved set of absolute paths produced
// after one debounce window. Duplicates across batches are possible;
// within a batch each path appears once, at the position of its first event.
type ChangeBatch []string

// Watcher debounces fsnotify events and emits ChangeBatch values.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	ignore   []string

	mu      sync.Mutex
	watched map[string]struct{}

	out chan ChangeBatch
}

// New creates a Watcher with the given debounce window and ignore globs.
// Ignore globs are matched with filepath.Match against the full path and
// against the base name, so both "**/dist/*.css"-style and bare "*.bak"
// patterns behave as an author would expect from a single glob component.
func New(debounce time.Duration, ignore []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		ignore:   ignore,
		watched:  make(map[string]struct{}),
		out:      make(chan ChangeBatch, 10),
	}, nil
}

// Events returns the channel that emits non-empty ChangeBatch values.
func (w *Watcher) Events() <-chan ChangeBatch { return w.out }

// Add watches a single file or directory (non-recursive for files).
func (w *Watcher) Add(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.watched[path]; ok {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		return err
	}
	w.watched[path] = struct{}{}
	return nil
}

// AddRecursive walks root and watches every directory beneath it.
func (w *Watcher) AddRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

// Remove stops watching a path previously added with Add/AddRecursive.
func (w *Watcher) Remove(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.watched[path]; !ok {
		return nil
	}
	delete(w.watched, path)
	return w.fsw.Remove(path)
}

// Run drains fsnotify events into a debouncer until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	pending := make(map[string]struct{})
	var order []string
	var mu sync.Mutex
	var timer *time.Timer

	flush := func() {
		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		batch := make(ChangeBatch, 0, len(order))
		batch = append(batch, order...)
		pending = make(map[string]struct{})
		order = nil
		mu.Unlock()

		batch = w.filterIgnored(batch)
		if len(batch) == 0 {
			return
		}
		select {
		case w.out <- batch:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !forwardedOp(ev.Op) {
				continue
			}
			mu.Lock()
			if _, seen := pending[ev.Name]; !seen {
				pending[ev.Name] = struct{}{}
				order = append(order, ev.Name)
			}
			mu.Unlock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, flush)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watcher: %v", err)
		}
	}
}

// forwardedOp implements the "only Create and Modify kinds are forwarded"
// event filter from the watcher spec.
func forwardedOp(op fsnotify.Op) bool {
	return op&fsnotify.Create == fsnotify.Create || op&fsnotify.Write == fsnotify.Write
}

func (w *Watcher) filterIgnored(batch ChangeBatch) ChangeBatch {
	if len(w.ignore) == 0 {
		return batch
	}
	out := make(ChangeBatch, 0, len(batch))
	for _, p := range batch {
		if !w.matchesIgnore(p) {
			out = append(out, p)
		}
	}
	return out
}

func (w *Watcher) matchesIgnore(path string) bool {
	base := filepath.Base(path)
	slashPath := filepath.ToSlash(path)
	for _, pattern := range w.ignore {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		// Support a leading "**/" glob-set convention: "**/dist/*.css" matches
		// any path whose trailing components match "dist/*.css", not just a
		// path whose base name alone matches.
		if trimmed, found := trimDoubleStarPrefix(pattern); found {
			if matchesTrailingComponents(trimmed, slashPath) {
				return true
			}
		}
	}
	return false
}

func trimDoubleStarPrefix(pattern string) (string, bool) {
	const prefix = "**/"
	if len(pattern) > len(prefix) && pattern[:len(prefix)] == prefix {
		return pattern[len(prefix):], true
	}
	return "", false
}

// matchesTrailingComponents reports whether pattern (itself possibly
// multi-component, e.g. "dist/*.css") matches the trailing path components
// of slashPath with the same component count, so a "**/"-trimmed pattern
// matches a full project-relative suffix rather than just the base name.
func matchesTrailingComponents(pattern, slashPath string) bool {
	patternParts := strings.Split(pattern, "/")
	pathParts := strings.Split(slashPath, "/")
	if len(pathParts) < len(patternParts) {
		return false
	}
	suffix := strings.Join(pathParts[len(pathParts)-len(patternParts):], "/")
	ok, _ := filepath.Match(pattern, suffix)
	return ok
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
