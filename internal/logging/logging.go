// Package logging builds the process logger: a slog text handler writing to
// the log file and, optionally, standard output.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// LevelTrace is below debug; it enables the most verbose output.
const LevelTrace = slog.Level(-8)

// FileName is the log file name used inside the default directory.
const FileName = "sw-catcher.log"

// Options configures Setup.
type Options struct {
	File         string
	Level        string
	EchoToStdout bool
	Disabled     bool
	// Stdout receives the echoed output; os.Stdout when nil.
	Stdout io.Writer
}

// ParseLevel maps error, warn, info, debug and trace to a slog level. Unknown
// values yield info with ok set to false.
func ParseLevel(s string) (level slog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return slog.LevelError, true
	case "warn":
		return slog.LevelWarn, true
	case "info":
		return slog.LevelInfo, true
	case "debug":
		return slog.LevelDebug, true
	case "trace":
		return LevelTrace, true
	default:
		return slog.LevelInfo, false
	}
}

// DefaultDir is ~/Library/Logs/sw-catcher on macOS and the working
// directory elsewhere.
func DefaultDir() string {
	if runtime.GOOS == "darwin" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Logs", "sw-catcher")
		}
	}
	return "."
}

// Path resolves the log file: /dev/null when disabled, the configured file,
// or FileName in DefaultDir. If the default directory cannot be created the
// file falls back to the working directory.
func Path(opts Options) string {
	if opts.Disabled {
		return os.DevNull
	}
	if opts.File != "" {
		return opts.File
	}
	dir := DefaultDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
		return FileName
	}
	return filepath.Join(dir, FileName)
}

// Setup returns the configured logger and a function that closes the log
// file. Unknown levels fall back to info and are reported once at debug.
func Setup(opts Options) (*slog.Logger, func() error, error) {
	level, ok := ParseLevel(opts.Level)
	noop := func() error { return nil }

	if opts.Disabled {
		return slog.New(discardHandler{}), noop, nil
	}

	path := Path(opts)
	var w io.Writer
	closeFn := noop
	if path == os.DevNull {
		w = io.Discard
	} else {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, noop, fmt.Errorf("open log file %s: %w", path, err)
		}
		w = f
		closeFn = f.Close
	}

	if opts.EchoToStdout {
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		if w == io.Discard {
			w = out
		} else {
			w = io.MultiWriter(w, out)
		}
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevel,
	}))
	if !ok && opts.Level != "" {
		logger.Debug("invalid log level, defaulting to info", "value", opts.Level)
	}
	return logger, closeFn, nil
}

// replaceLevel prints LevelTrace as TRACE instead of DEBUG-4.
func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) > 0 {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

// discardHandler drops every record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }
