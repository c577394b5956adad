package logger

import (
	"context"
	"io"
	"log/slog"
)

// slogLogger implements Logger on top of a slog handler. Module scope is kept
// as a plain string and emitted as a "module" attribute on every record so
// nested Module calls never duplicate the attribute.
type slogLogger struct {
	base   *slog.Logger
	module string
}

// NewSlogLogger creates a Logger writing to w at the given level. When
// jsonFormat is true records are emitted as JSON, otherwise as logfmt-style
// text.
func NewSlogLogger(w io.Writer, level LogLevel, jsonFormat bool) Logger {
	opts := &slog.HandlerOptions{Level: slogLevel(level)}

	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &slogLogger{base: slog.New(handler)}
}

func slogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *slogLogger) Module(name string) Logger {
	module := name
	if l.module != "" {
		module = l.module + "." + name
	}
	return &slogLogger{base: l.base, module: module}
}

func (l *slogLogger) With(fields ...Field) Logger {
	return &slogLogger{base: l.base.With(fieldArgs(fields)...), module: l.module}
}

func (l *slogLogger) Debug(msg string, fields ...Field) { l.log(slog.LevelDebug, msg, fields) }
func (l *slogLogger) Info(msg string, fields ...Field)  { l.log(slog.LevelInfo, msg, fields) }
func (l *slogLogger) Warn(msg string, fields ...Field)  { l.log(slog.LevelWarn, msg, fields) }
func (l *slogLogger) Error(msg string, fields ...Field) { l.log(slog.LevelError, msg, fields) }

func (l *slogLogger) log(level slog.Level, msg string, fields []Field) {
	args := make([]any, 0, 2*len(fields)+2)
	if l.module != "" {
		args = append(args, "module", l.module)
	}
	args = append(args, fieldArgs(fields)...)
	l.base.Log(context.Background(), level, msg, args...)
}

func fieldArgs(fields []Field) []any {
	args := make([]any, 0, 2*len(fields))
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return args
}
