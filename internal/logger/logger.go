package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"inventory-crud/internal/utils"

	"go.opentelemetry.io/otel/trace"
)

var (
	instance atomic.Pointer[slog.Logger]
	once     sync.Once
)

// New builds the JSON logger used across the service.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Instance returns the process logger. LOG_LEVEL is read directly because
// config itself logs through this package.
func Instance() *slog.Logger {
	once.Do(func() {
		instance.CompareAndSwap(nil, New(os.Stdout, parseLevel(os.Getenv("LOG_LEVEL"))))
	})

	return instance.Load()
}

// SetOutput sends the process logger to w at the LOG_LEVEL level. Commands
// that print results on stdout point it at stderr.
func SetOutput(w io.Writer) {
	instance.Store(New(w, parseLevel(os.Getenv("LOG_LEVEL"))))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	Instance().LogAttrs(ctx, slog.LevelDebug, msg, enrich(ctx, attrs...)...)
}

func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	enriched := enrich(ctx, attrs...)
	Instance().LogAttrs(ctx, slog.LevelInfo, msg, enriched...)
	sendLog("info", msg, enriched)
}

func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	enriched := enrich(ctx, attrs...)
	Instance().LogAttrs(ctx, slog.LevelWarn, msg, enriched...)
	sendLog("warn", msg, enriched)
}

func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	enriched := enrich(ctx, attrs...)
	Instance().LogAttrs(ctx, slog.LevelError, msg, enriched...)
	sendLog("error", msg, enriched)
}

// enrich appends trace correlation fields when ctx carries a valid span.
func enrich(ctx context.Context, attrs ...slog.Attr) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
			slog.String("hostname", utils.GetHost()),
		)
	}

	return attrs
}

// AttrsToArgs converts attrs for the variadic ...any slog API.
func AttrsToArgs(attrs []slog.Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}
