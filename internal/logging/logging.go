// Package logging provides the structured-message channel the dev-loop core
// sends build and lifecycle events over, plus the console consumer that
// drains it. Console rendering is an external consumer of a message stream,
// not a method the producer blocks on.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Kind classifies a Message the way the build pipeline's text-line
// classifier does: diagnostics, failed build-finished records, and prefixed
// text lines each get their own kind so the console consumer can render them
// distinctly.
type Kind int

const (
	KindOther Kind = iota
	KindCompiling
	KindBlocking
	KindFinished
	KindWarning
	KindDiagnostic
	KindBuildFinished
	KindPageReload
	KindInfo
	KindError
)

// Message is one line sent over the logger channel.
type Message struct {
	Kind Kind
	Text string
	Err  error
	Time time.Time
}

// ClassifyTextLine implements the "classifies by prefix" rule from the
// compiler invocation contract: Compiling/Blocking/Finished/warning: are
// recognized prefixes, anything else is Other.
func ClassifyTextLine(line string) Kind {
	switch {
	case strings.HasPrefix(line, "Compiling "):
		return KindCompiling
	case strings.HasPrefix(line, "Blocking "):
		return KindBlocking
	case strings.HasPrefix(line, "Finished "):
		return KindFinished
	case strings.HasPrefix(line, "warning:"):
		return KindWarning
	default:
		return KindOther
	}
}

// NewChannel creates a logger channel with the bounded capacity the spec
// requires (≥10) so a burst of build output never stalls the producer
// behind a slow console consumer for long.
func NewChannel() chan Message {
	return make(chan Message, 64)
}

// Consumer drains a logger channel into a slog.Logger, one log line per
// Message, until the channel is closed.
type Consumer struct {
	logger *slog.Logger
}

// NewConsumer builds a Consumer writing text-formatted lines to os.Stdout.
func NewConsumer() *Consumer {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})
	return &Consumer{logger: slog.New(handler)}
}

// Run drains ch until it is closed, logging every Message at a level
// derived from its Kind.
func (c *Consumer) Run(ch <-chan Message) {
	for msg := range ch {
		c.render(msg)
	}
}

// RenderAndCheckReady renders msg the way Run does, then invokes onReady
// once when msg is the Loop's "init build finished" readiness signal and
// open is true. Lets a CLI command open the browser exactly when the dev
// server actually starts accepting connections, instead of guessing a delay.
func (c *Consumer) RenderAndCheckReady(msg Message, open bool, onReady func()) {
	c.render(msg)
	if open && msg.Kind == KindInfo && msg.Text == "init build finished" {
		onReady()
	}
}

func (c *Consumer) render(msg Message) {
	attrs := []any{"kind", kindName(msg.Kind)}
	if msg.Err != nil {
		attrs = append(attrs, "error", msg.Err.Error())
	}
	switch msg.Kind {
	case KindWarning:
		c.logger.Warn(msg.Text, attrs...)
	case KindError, KindBuildFinished:
		if msg.Err != nil {
			c.logger.Error(msg.Text, attrs...)
			return
		}
		c.logger.Info(msg.Text, attrs...)
	default:
		c.logger.Info(msg.Text, attrs...)
	}
}

func kindName(k Kind) string {
	switch k {
	case KindCompiling:
		return "compiling"
	case KindBlocking:
		return "blocking"
	case KindFinished:
		return "finished"
	case KindWarning:
		return "warning"
	case KindDiagnostic:
		return "diagnostic"
	case KindBuildFinished:
		return "build_finished"
	case KindPageReload:
		return "page_reload"
	case KindInfo:
		return "info"
	case KindError:
		return "error"
	default:
		return "other"
	}
}

// Send is a non-blocking best-effort send used by producers that must never
// stall on a full logger channel (the channel is sized generously, but a
// producer on the hot build path should not deadlock if a consumer is slow
// to start).
func Send(ch chan<- Message, msg Message) {
	if ch == nil {
		return
	}
	msg.Time = time.Now()
	select {
	case ch <- msg:
	default:
	}
}
