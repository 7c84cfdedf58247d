package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"portfolioSim/internal/ports"
)

// Output formats accepted by New.
const (
	FormatStd     = "std"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// ZeroLogger implements ports.Logger on top of zerolog.
type ZeroLogger struct {
	logger zerolog.Logger
}

// NewZeroLogger creates a structured logger writing JSON lines to w, or
// human-readable lines when pretty is set.
func NewZeroLogger(w io.Writer, level LogLevel, pretty bool) *ZeroLogger {
	output := w
	if pretty {
		output = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	zl := zerolog.New(output).
		Level(toZerologLevel(level)).
		With().
		Timestamp().
		Logger()
	return &ZeroLogger{logger: zl}
}

// New builds the logger selected by format. Unknown formats fall back to std.
func New(format string, level LogLevel) ports.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	switch strings.ToLower(format) {
	case FormatJSON:
		return NewZeroLogger(os.Stdout, level, false)
	case FormatConsole:
		return NewZeroLogger(os.Stdout, level, true)
	default:
		return NewStdLogger(level)
	}
}

func toZerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func withFields(ctx context.Context, e *zerolog.Event, fields []map[string]interface{}) *zerolog.Event {
	if e == nil {
		return e // level disabled
	}
	if merged := mergeFields(ctx, fields); len(merged) > 0 {
		e = e.Fields(merged)
	}
	return e
}

// Debug logs a message at Debug level.
func (l *ZeroLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	withFields(ctx, l.logger.Debug(), fields).Msg(msg)
}

// Info logs a message at Info level.
func (l *ZeroLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	withFields(ctx, l.logger.Info(), fields).Msg(msg)
}

// Warn logs a message at Warning level.
func (l *ZeroLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	withFields(ctx, l.logger.Warn(), fields).Msg(msg)
}

// Error logs an error message at Error level.
func (l *ZeroLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	withFields(ctx, l.logger.Error().Err(err), fields).Msg(msg)
}
