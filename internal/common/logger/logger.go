package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger is the structured logging interface shared by every component.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger
	With(fields map[string]interface{}) Logger
}

// New builds the process logger. "json" selects the production encoder,
// anything else the console one. Unknown levels fall back to info.
func New(level, format string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewDevelopmentConfig()
	if format == "json" {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// FromZap adapts a *zap.Logger to Logger.
func FromZap(l *zap.Logger) Logger {
	return fieldLogger{l}
}

// NewTestLogger routes log output to the test's log.
func NewTestLogger(t testing.TB) Logger {
	return fieldLogger{zaptest.NewLogger(t)}
}

func NewNoOpLogger() Logger {
	return fieldLogger{zap.NewNop()}
}

type fieldLogger struct {
	z *zap.Logger
}

func (f fieldLogger) Debug(msg string, fields map[string]interface{}) {
	f.z.Debug(msg, toZap(fields)...)
}

func (f fieldLogger) Info(msg string, fields map[string]interface{}) {
	f.z.Info(msg, toZap(fields)...)
}

func (f fieldLogger) Warn(msg string, fields map[string]interface{}) {
	f.z.Warn(msg, toZap(fields)...)
}

func (f fieldLogger) Error(msg string, fields map[string]interface{}) {
	f.z.Error(msg, toZap(fields)...)
}

func (f fieldLogger) With(fields map[string]interface{}) Logger {
	return fieldLogger{f.z.With(toZap(fields)...)}
}

func (f fieldLogger) WithFields(fields map[string]interface{}) Logger {
	return f.With(fields)
}

func (f fieldLogger) WithError(err error) Logger {
	return fieldLogger{f.z.With(zap.Error(err))}
}

// toZap keeps error values under their own key instead of flattening them
// through zap.Any.
func toZap(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
		} else {
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
