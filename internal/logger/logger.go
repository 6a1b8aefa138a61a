// Package logger provides a leveled key=value logger with context
// injection and an HTTP request-logging middleware.
package logger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is a log severity.
type Level int8

const (
	DebugLevel Level = iota - 1
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel parses a level name, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger is the logging interface used throughout the module.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	With(fields ...any) Logger
}

type key int

const loggerKey key = iota

// NewContext returns a context carrying l.
func NewContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger carried by ctx, or a no-op logger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok && l != nil {
		return l
	}
	return Discard()
}

type writerLogger struct {
	mu     *sync.Mutex
	w      io.Writer
	level  Level
	fields []any
}

// New returns a logger writing timestamped key=value lines to w.
func New(w io.Writer, level Level) Logger {
	return &writerLogger{mu: &sync.Mutex{}, w: w, level: level}
}

// NewStderr returns a logger writing to stderr.
func NewStderr(level Level) Logger {
	return New(os.Stderr, level)
}

func (l *writerLogger) Debug(msg string, fields ...any) { l.log(DebugLevel, "DEBUG", msg, fields) }
func (l *writerLogger) Info(msg string, fields ...any)  { l.log(InfoLevel, "INFO", msg, fields) }
func (l *writerLogger) Warn(msg string, fields ...any)  { l.log(WarnLevel, "WARN", msg, fields) }
func (l *writerLogger) Error(msg string, fields ...any) { l.log(ErrorLevel, "ERROR", msg, fields) }

func (l *writerLogger) With(fields ...any) Logger {
	child := &writerLogger{mu: l.mu, w: l.w, level: l.level}
	child.fields = append(append([]any{}, l.fields...), fields...)
	return child
}

func (l *writerLogger) log(level Level, tag, msg string, fields []any) {
	if l.level > level {
		return
	}

	var sb strings.Builder
	sb.WriteString(time.Now().Format(time.RFC3339))
	sb.WriteString(" ")
	sb.WriteString(tag)
	sb.WriteString(" ")
	sb.WriteString(msg)

	all := append(append([]any{}, l.fields...), fields...)
	for i := 0; i+1 < len(all); i += 2 {
		k, ok := all[i].(string)
		if !ok {
			continue
		}
		sb.WriteString(" ")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(formatValue(all[i+1]))
	}
	sb.WriteString("\n")

	l.mu.Lock()
	io.WriteString(l.w, sb.String())
	l.mu.Unlock()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case error:
		return val.Error()
	default:
		return fmt.Sprintf("%v", val)
	}
}

type discard struct{}

func (discard) Debug(string, ...any) {}
func (discard) Info(string, ...any)  {}
func (discard) Warn(string, ...any)  {}
func (discard) Error(string, ...any) {}
func (d discard) With(...any) Logger { return d }

// Discard returns a logger that drops everything.
func Discard() Logger {
	return discard{}
}

// RequestLogger returns middleware that logs each request with a
// generated request id and injects the request-scoped logger into the
// request context.
func RequestLogger(base Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLog := base.With("request_id", uuid.NewString())
			reqLog.Info("request started", "method", r.Method, "path", r.URL.Path)
			start := time.Now()

			ctx := NewContext(r.Context(), reqLog)
			next.ServeHTTP(w, r.WithContext(ctx))

			reqLog.Info("request completed", "duration", time.Since(start))
		})
	}
}
