// Package logger implements ports.Logger on top of log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"go.trai.ch/rig/internal/core/ports"
)

// Logger implements ports.Logger. Diagnostics go to stderr as coloured lines,
// or as JSON objects after SetJSON(true).
type Logger struct {
	current atomic.Pointer[slog.Logger]

	mu   sync.Mutex // serialises reconfiguration
	out  io.Writer
	json bool
}

var _ ports.Logger = (*Logger)(nil)

// New creates a Logger writing human-readable output to os.Stderr.
func New() *Logger {
	l := &Logger{out: os.Stderr}
	l.current.Store(l.build())
	return l
}

// SetOutput redirects the logger, keeping its format. A nil w restores os.Stderr.
func (l *Logger) SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	l.reconfigure(func() { l.out = w })
}

// SetJSON switches between JSON and pretty output.
func (l *Logger) SetJSON(enable bool) {
	l.reconfigure(func() { l.json = enable })
}

func (l *Logger) reconfigure(change func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	change()
	l.current.Store(l.build())
}

func (l *Logger) build() *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if l.json {
		return slog.New(slog.NewJSONHandler(l.out, opts))
	}
	return slog.New(NewPrettyHandler(l.out, opts))
}

func (l *Logger) jsonMode() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.json
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.current.Load().Info(msg)
}

// Warn logs a warning.
func (l *Logger) Warn(msg string) {
	l.current.Load().Warn(msg)
}

// Error logs err. Pretty output shows the cause chain with its metadata;
// JSON output hands err to zerr's slog integration.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}

	if l.jsonMode() {
		l.current.Load().Error("operation failed", "error", err)
		return
	}

	l.current.Load().Error(formatErrorEntries(collectErrorEntries(err)))
}
