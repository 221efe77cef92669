// Package logger implements a logging adapter using log/slog.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/remake/internal/core/ports"
	"go.trai.ch/zerr"
)

// messager matches errors that can report their own message without the chain,
// such as *zerr.Error.
type messager interface {
	Message() string
}

// Logger implements ports.Logger using log/slog.
type Logger struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	output   io.Writer
	jsonMode bool
}

// New creates a Logger writing pretty lines to stderr.
func New() *Logger {
	l := &Logger{}
	l.SetOutput(os.Stderr)
	return l
}

var _ ports.Logger = (*Logger)(nil)

// SetOutput changes the destination, keeping the current format.
// A nil writer selects stderr.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.rebuild()
}

// SetJSON switches between JSON and pretty output.
func (l *Logger) SetJSON(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.jsonMode = enable
	l.rebuild()
}

func (l *Logger) rebuild() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if l.jsonMode {
		l.logger = slog.New(slog.NewJSONHandler(l.output, opts))
		return
	}
	l.logger = slog.New(NewPrettyHandler(l.output, opts))
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs err. In pretty mode the zerr chain is printed one cause per line
// and zerr metadata is appended as attributes.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.jsonMode {
		l.logger.Error("operation failed", "error", err.Error())
		return
	}

	l.logger.Error(formatErrorChain(err), metadataAttrs(err)...)
}

// collectMessages walks err through zerr wrappers. A non-zerr error ends the walk
// with its full message.
func collectMessages(err error) []string {
	var messages []string
	for current := err; current != nil; {
		m, ok := current.(messager)
		if !ok {
			messages = append(messages, current.Error())
			break
		}
		if msg := m.Message(); msg != "" {
			messages = append(messages, msg)
		}
		current = errors.Unwrap(current)
	}
	return messages
}

func formatErrorChain(err error) string {
	messages := collectMessages(err)
	if len(messages) == 0 {
		return err.Error()
	}

	var b strings.Builder
	b.WriteString(messages[0])
	if len(messages) > 1 {
		b.WriteString("\n  caused by:")
		for _, msg := range messages[1:] {
			b.WriteString("\n    → ")
			b.WriteString(msg)
		}
	}
	return b.String()
}

// metadataAttrs gathers zerr metadata from every layer of the chain, sorted by key.
func metadataAttrs(err error) []any {
	meta := make(map[string]any)
	for current := err; current != nil; current = errors.Unwrap(current) {
		var zErr *zerr.Error
		if !errors.As(current, &zErr) {
			break
		}
		for k, v := range zErr.Metadata() {
			if _, seen := meta[k]; !seen {
				meta[k] = v
			}
		}
		current = zErr
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	attrs := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		attrs = append(attrs, k, fmt.Sprint(meta[k]))
	}
	return attrs
}
