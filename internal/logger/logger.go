// Package logger is the process-wide structured logger: slog handlers for the
// console and a rotating file, behind package-level helpers. Records logged
// with a context carrying an OpenTelemetry span are stamped with its ids.
package logger

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelAlways sits above ERROR so that lifecycle lines survive any level.
const LevelAlways = slog.Level(12)

var current atomic.Pointer[slog.Logger]

// Initialize installs the handlers described by cfg. With every sink
// disabled it still logs text to stdout.
func Initialize(cfg Config) error {
	opts := handlerOptions(parseLogLevel(cfg.Level))

	var sinks fanout
	if cfg.ConsoleEnabled {
		sinks = append(sinks, newHandler(os.Stdout, cfg.ConsoleFormat, opts))
	}
	if cfg.FileEnabled {
		sinks = append(sinks, newHandler(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.FileMaxSizeMB,
			MaxBackups: cfg.FileMaxBackups,
			MaxAge:     cfg.FileMaxAgeDays,
		}, cfg.FileFormat, opts))
	}

	switch len(sinks) {
	case 0:
		setHandler(slog.NewTextHandler(os.Stdout, opts))
	case 1:
		setHandler(sinks[0])
	default:
		setHandler(sinks)
	}
	return nil
}

func setHandler(h slog.Handler) {
	current.Store(slog.New(traceHandler{h}))
}

func handlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && a.Value.Any() == LevelAlways {
				a.Value = slog.StringValue("ALWAYS")
			}
			return a
		},
	}
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// parseLogLevel accepts DEBUG, INFO, WARN(ING) and ERROR in any case.
// Anything else is INFO.
func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARNING", "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ErrorLog adapts the logger for APIs that want a *log.Logger, such as
// http.Server.ErrorLog. Lines are logged at ERROR.
func ErrorLog() *log.Logger {
	l := current.Load()
	if l == nil {
		return log.New(io.Discard, "", 0)
	}
	return slog.NewLogLogger(l.Handler(), slog.LevelError)
}

func emit(ctx context.Context, level slog.Level, msg string, args []any) {
	if l := current.Load(); l != nil {
		l.Log(ctx, level, msg, args...)
	}
}

func Debug(msg string, args ...any)   { emit(context.Background(), slog.LevelDebug, msg, args) }
func Info(msg string, args ...any)    { emit(context.Background(), slog.LevelInfo, msg, args) }
func Warning(msg string, args ...any) { emit(context.Background(), slog.LevelWarn, msg, args) }
func Error(msg string, args ...any)   { emit(context.Background(), slog.LevelError, msg, args) }

// Always logs lifecycle events such as startup and shutdown regardless of level.
func Always(msg string, args ...any) { emit(context.Background(), LevelAlways, msg, args) }

func DebugContext(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelDebug, msg, args)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelInfo, msg, args)
}

func WarningContext(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelWarn, msg, args)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelError, msg, args)
}

// traceHandler adds trace_id and span_id when the record's context holds a
// valid span.
type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{h.Handler.WithGroup(name)}
}

// fanout sends each record to every sink enabled for its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
