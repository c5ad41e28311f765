package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// Logger provides leveled, printf-style logging throughout the application,
// backed by slog with a colored terminal handler.
type Logger struct {
	s *slog.Logger
}

// NewLogger creates a Logger writing to stderr.
func NewLogger() *Logger {
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "2006-01-02 15:04:05",
	})
	return &Logger{s: slog.New(handler)}
}

// NewTestLogger creates a Logger that discards all output.
func NewTestLogger() *Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return &Logger{s: slog.New(handler)}
}

func (l *Logger) Info(format string, args ...any) {
	l.s.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.s.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.s.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) {
	l.s.Debug(fmt.Sprintf(format, args...))
}

// With returns a Logger whose lines carry the given attribute, used to stamp
// the pipeline run id on every message of a run.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{s: l.s.With(slog.Any(key, value))}
}
