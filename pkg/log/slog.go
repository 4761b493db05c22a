package log

import (
	"context"
	"io"
	"log/slog"

	"github.com/cockroachdb/errors"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass an error to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// ToLogLevel parses a level name into a Level.
func ToLogLevel(level string) Level {
	switch level {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// slogLogger implements Logger on top of log/slog, for callers that already
// route their service logs through an slog handler chain.
type slogLogger struct {
	sl *slog.Logger
}

// NewSlogLogger creates a Logger writing JSON records to w through slog.
// Errors carrying cockroachdb/errors stack traces are emitted with a
// stacktrace attribute.
func NewSlogLogger(w io.Writer, level Level) Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.Level(level)})
	return &slogLogger{sl: slog.New(newErrorStackHandler(handler))}
}

// NewSlogAdapter wraps an existing slog.Logger as a Logger.
func NewSlogAdapter(sl *slog.Logger) Logger {
	return &slogLogger{sl: sl}
}

// args converts the variadic field list to slog arguments. An error in the
// leading position becomes the error attribute.
func args(fields []any) []any {
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			out := make([]any, 0, len(fields)+1)
			out = append(out, ErrAttr(err))
			return append(out, fields[1:]...)
		}
	}
	return fields
}

func (s *slogLogger) Debug(msg string, fields ...any) { s.sl.Debug(msg, args(fields)...) }
func (s *slogLogger) Info(msg string, fields ...any)  { s.sl.Info(msg, args(fields)...) }
func (s *slogLogger) Warn(msg string, fields ...any)  { s.sl.Warn(msg, args(fields)...) }
func (s *slogLogger) Error(msg string, fields ...any) { s.sl.Error(msg, args(fields)...) }

func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{sl: s.sl.With(fields...)}
}

func (s *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.sl.Enabled(ctx, slog.Level(level))
}

// errorStackHandler decorates records carrying an error attribute with the
// stack trace recorded by cockroachdb/errors.
type errorStackHandler struct {
	handler slog.Handler
}

func newErrorStackHandler(handler slog.Handler) slog.Handler {
	return &errorStackHandler{handler: handler}
}

func (h *errorStackHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.handler.Enabled(ctx, l)
}

func (h *errorStackHandler) Handle(ctx context.Context, r slog.Record) error {
	var stacktrace string
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == ErrAttrKey {
			if err, ok := attr.Value.Any().(error); ok {
				stacktrace = extractStacktrace(err)
			}
			return false
		}
		return true
	})
	if stacktrace != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, stacktrace))
	}
	return h.handler.Handle(ctx, r)
}

func (h *errorStackHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &errorStackHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *errorStackHandler) WithGroup(g string) slog.Handler {
	return &errorStackHandler{handler: h.handler.WithGroup(g)}
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
