// Package logging defines the narrow logging handle long-lived components
// take at construction (§9 design note: "expose it as a handle injected at
// construction ... rather than reaching into globals"), and a default
// implementation backed by log/slog with a rotating file sink.
//
// This mirrors how the corpus's own server-side tooling wires a logger
// handle through constructors rather than a package-level singleton (see
// nickheyer-discopanel's pkg/logger.Logger, injected into its Scheduler,
// LogStreamer, and proxy types), except the handle here is an interface so
// callers outside this module can supply their own backend.
package logging

import (
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the capability this module depends on for structured logging.
// Every long-lived component (the World view, the TileSet scanner, the tile
// renderer, the dispatcher, the world cache) takes one at construction;
// RegionFile readers do not log and take none.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a Logger that prepends args to every subsequent call,
	// used to attach stable context like region/chunk/tile-path keys so
	// the "at most one WARNING per (region, chunk)" rule (§7) can be
	// mechanically satisfied by a caller that dedups on that key.
	With(args ...any) Logger
}

// slogLogger adapts *slog.Logger to the Logger interface.
type slogLogger struct {
	l *slog.Logger
}

// FileConfig configures the rotating file sink. A zero value disables it
// and New logs to stderr only.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New returns a Logger that writes human-readable text to stderr, and, if
// file.Path is non-empty, also to a lumberjack-rotated file — the same
// pairing the corpus uses for its own file-backed logger (stdout plus an
// optional lumberjack.Logger writer).
func New(level slog.Level, file FileConfig) Logger {
	var w = os.Stderr
	handlerOpts := &slog.HandlerOptions{Level: level}

	if file.Path == "" {
		return &slogLogger{l: slog.New(slog.NewTextHandler(w, handlerOpts))}
	}

	rotator := &lumberjack.Logger{
		Filename:   file.Path,
		MaxSize:    file.MaxSizeMB,
		MaxBackups: file.MaxBackups,
		MaxAge:     file.MaxAgeDays,
		Compress:   file.Compress,
	}
	multi := &teeWriter{a: w, b: rotator}
	return &slogLogger{l: slog.New(slog.NewTextHandler(multi, handlerOpts))}
}

// Nop returns a Logger that discards everything, for tests and callers
// that don't care about diagnostics.
func Nop() Logger {
	return &slogLogger{l: slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// teeWriter duplicates writes to both sinks, discarding b's error so a full
// disk or rotation failure never blocks stderr logging.
type teeWriter struct {
	a, b interface {
		Write([]byte) (int, error)
	}
}

func (t *teeWriter) Write(p []byte) (int, error) {
	n, err := t.a.Write(p)
	_, _ = t.b.Write(p)
	return n, err
}
