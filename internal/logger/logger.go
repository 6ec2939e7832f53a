// Package logger provides process-wide structured logging for BenchBook.
// Debug and Info records are emitted only in verbose mode (--verbose);
// Warn and Error records are always emitted so that truncation and
// degenerate-input diagnostics are never hidden.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu       sync.RWMutex
	verbose  bool
	jsonMode bool
	output   io.Writer = os.Stderr
	handler  slog.Handler
)

func init() {
	rebuild()
}

// rebuild must be called with mu held for writing (or during init).
func rebuild() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey && !jsonMode {
				return slog.Attr{}
			}
			return a
		},
	}
	if jsonMode {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetJSON switches between JSON records (for servers) and text records.
func SetJSON(v bool) {
	mu.Lock()
	defer mu.Unlock()
	jsonMode = v
	rebuild()
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// Logger returns a *slog.Logger writing through the current handler.
// Records it emits are not subject to the verbose switch.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slog.New(handler)
}

func emit(level slog.Level, msg string, args []any) {
	mu.RLock()
	defer mu.RUnlock()
	if level < slog.LevelWarn && !verbose {
		return
	}
	slog.New(handler).Log(context.Background(), level, msg, args...)
}

// Debug logs an event with key-value attributes if verbose mode is enabled.
func Debug(msg string, args ...any) { emit(slog.LevelDebug, msg, args) }

// Info logs an event with key-value attributes if verbose mode is enabled.
func Info(msg string, args ...any) { emit(slog.LevelInfo, msg, args) }

// Warn always logs an event with key-value attributes.
func Warn(msg string, args ...any) { emit(slog.LevelWarn, msg, args) }

// Error always logs an event with key-value attributes.
func Error(msg string, args ...any) { emit(slog.LevelError, msg, args) }

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose && !jsonMode {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
