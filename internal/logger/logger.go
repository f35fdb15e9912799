package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Config holds logger configuration
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or file path
}

// sink is the active destination and encoding for log records.
type sink struct {
	w        io.Writer
	closer   io.Closer // non-nil when the logger owns the file
	format   string
	useColor bool
	logger   *slog.Logger
}

var (
	// level is shared by every handler so SetLevel never rebuilds them.
	level = new(slog.LevelVar)

	mu  sync.RWMutex
	cur = &sink{w: os.Stdout, format: "text"}
)

func init() {
	level.Set(slog.LevelInfo)
	cur.useColor = isTerminal(os.Stdout.Fd())
	cur.logger = slog.New(newHandler(cur))
}

func newHandler(s *sink) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if s.format == "json" {
		return slog.NewJSONHandler(s.w, opts)
	}
	return newTextHandler(s.w, opts, s.useColor)
}

// swap replaces the active sink, closing a log file the previous one owned.
func swap(next *sink) {
	next.logger = slog.New(newHandler(next))

	mu.Lock()
	prev := cur
	cur = next
	mu.Unlock()

	if prev.closer != nil && prev.closer != next.closer {
		_ = prev.closer.Close()
	}
}

func snapshot() sink {
	mu.RLock()
	defer mu.RUnlock()
	return *cur
}

// Init initializes the logger with the given configuration.
// Output can be "stdout", "stderr", or a file path.
func Init(cfg Config) error {
	next := snapshot()

	switch strings.ToLower(cfg.Output) {
	case "":
	case "stdout":
		next.w, next.closer = os.Stdout, nil
		next.useColor = isTerminal(os.Stdout.Fd())
	case "stderr":
		next.w, next.closer = os.Stderr, nil
		next.useColor = isTerminal(os.Stderr.Fd())
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", cfg.Output, err)
		}
		next.w, next.closer = f, f
		next.useColor = false
	}

	if f, ok := parseFormat(cfg.Format); ok {
		next.format = f
	}
	swap(&next)

	SetLevel(cfg.Level)
	return nil
}

// InitWithWriter points the logger at w. Used by tests.
func InitWithWriter(w io.Writer, lvl, format string, enableColor bool) {
	next := snapshot()
	next.w, next.closer = w, nil
	next.useColor = enableColor
	if f, ok := parseFormat(format); ok {
		next.format = f
	}
	swap(&next)

	SetLevel(lvl)
}

// SetLevel sets the minimum log level. Unknown names are ignored.
func SetLevel(name string) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		level.Set(slog.LevelDebug)
	case "INFO":
		level.Set(slog.LevelInfo)
	case "WARN":
		level.Set(slog.LevelWarn)
	case "ERROR":
		level.Set(slog.LevelError)
	}
}

// GetLevel returns the current minimum log level.
func GetLevel() string {
	return levelName(level.Level())
}

// SetFormat switches between text and json output. Unknown formats are ignored.
func SetFormat(format string) {
	f, ok := parseFormat(format)
	if !ok {
		return
	}
	next := snapshot()
	if next.format == f {
		return
	}
	next.format = f
	swap(&next)
}

func parseFormat(format string) (string, bool) {
	switch f := strings.ToLower(format); f {
	case "text", "json":
		return f, true
	default:
		return "", false
	}
}

func levelName(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return cur.logger
}

func emit(ctx context.Context, l slog.Level, msg string, args []any) {
	if l < level.Level() {
		return
	}
	if ctx != nil {
		args = appendContextFields(ctx, args)
	}
	current().Log(context.Background(), l, msg, args...)
}

// Debug logs at debug level: Debug("msg", "key", value, ...)
func Debug(msg string, args ...any) { emit(nil, slog.LevelDebug, msg, args) }

// Info logs at info level.
func Info(msg string, args ...any) { emit(nil, slog.LevelInfo, msg, args) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { emit(nil, slog.LevelWarn, msg, args) }

// Error logs at error level.
func Error(msg string, args ...any) { emit(nil, slog.LevelError, msg, args) }

// DebugCtx logs at debug level, prefixed with the LogContext fields in ctx.
func DebugCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelDebug, msg, args)
}

// InfoCtx logs at info level with context fields.
func InfoCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelInfo, msg, args)
}

// WarnCtx logs at warn level with context fields.
func WarnCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelWarn, msg, args)
}

// ErrorCtx logs at error level with context fields.
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelError, msg, args)
}

func appendContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	out := make([]any, 0, 10+len(args))
	for _, kv := range [...][2]string{
		{KeyTraceID, lc.TraceID},
		{KeySpanID, lc.SpanID},
		{KeyRequestID, lc.RequestID},
		{KeyOperation, lc.Operation},
		{KeyClientIP, lc.ClientIP},
	} {
		if kv[1] != "" {
			out = append(out, kv[0], kv[1])
		}
	}
	return append(out, args...)
}

// With returns a logger with pre-bound attributes.
func With(args ...any) *slog.Logger {
	return current().With(args...)
}

// Duration returns the time elapsed since start in milliseconds.
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
