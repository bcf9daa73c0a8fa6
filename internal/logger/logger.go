// Package logger is a thin wrapper over slog that tags every record
// with the component it came from and filters by a process-wide
// minimum level.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// minLevel is the process-wide minimum level. Records below it are
// dropped before formatting.
var minLevel atomic.Int64

func init() {
	minLevel.Store(int64(slog.LevelInfo))

	if os.Getenv("ICAGENT_DEBUG") != "" {
		minLevel.Store(int64(slog.LevelDebug))
	}
}

// SetLevel changes the process-wide minimum level.
func SetLevel(level slog.Level) {
	minLevel.Store(int64(level))
}

// Logger logs on behalf of one named component.
type Logger struct {
	inner *slog.Logger
}

var (
	defaultHandler slog.Handler
	handlerOnce    sync.Once
)

// New returns a logger for the named component. All loggers share one
// handler writing to stdout.
func New(component string) *Logger {
	handlerOnce.Do(func() {
		defaultHandler = NewHandler(os.Stdout)
	})

	return &Logger{
		inner: slog.New(defaultHandler).With("component", component),
	}
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(msg string, args ...any) {
	l.inner.Debug(msg, args...)
}

// Info logs at INFO level.
func (l *Logger) Info(msg string, args ...any) {
	l.inner.Info(msg, args...)
}

// Warn logs at WARN level.
func (l *Logger) Warn(msg string, args ...any) {
	l.inner.Warn(msg, args...)
}

// Error logs at ERROR level.
func (l *Logger) Error(msg string, args ...any) {
	l.inner.Error(msg, args...)
}

// With returns a logger carrying extra attributes on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

// Timed returns the elapsed time since start as a loggable attribute.
func Timed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// Handler is a slog handler with millisecond timestamps and a compact
// single-line format.
type Handler struct {
	out   io.Writer
	attrs []slog.Attr
	mu    *sync.Mutex
}

// NewHandler creates a handler writing to the given writer.
func NewHandler(out io.Writer) *Handler {
	return &Handler{out: out, mu: &sync.Mutex{}}
}

// Enabled reports whether the level clears the process-wide minimum.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return int64(level) >= minLevel.Load()
}

// Handle formats and writes a log record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	// Format: 2024-01-15 14:30:45.123 [INF] message key=value
	ts := r.Time.Format("2006-01-02 15:04:05.000")
	level := levelString(r.Level)

	h.mu.Lock()
	defer h.mu.Unlock()

	fmt.Fprintf(h.out, "%s [%s] %s", ts, level, r.Message)

	for _, a := range h.attrs {
		fmt.Fprintf(h.out, " %s=%v", a.Key, a.Value)
	}

	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.out, " %s=%v", a.Key, a.Value)
		return true
	})

	fmt.Fprintln(h.out)

	return nil
}

// WithAttrs returns a handler that prepends the given attributes to
// every record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)

	return &Handler{out: h.out, attrs: merged, mu: h.mu}
}

// WithGroup returns the handler unchanged; groups are not used.
func (h *Handler) WithGroup(string) slog.Handler {
	return h
}

// levelString returns the three-letter tag for a level.
func levelString(l slog.Level) string {
	switch l {
	case slog.LevelDebug:
		return "DBG"
	case slog.LevelInfo:
		return "INF"
	case slog.LevelWarn:
		return "WRN"
	case slog.LevelError:
		return "ERR"
	default:
		return "???"
	}
}
