// Package logger is the map-field logging facade every component takes at
// construction; zap does the work underneath.
package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	// WithFields returns a child logger that adds fields to every entry.
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger
}

// New builds the process logger. format "json" selects the production
// encoder; anything else is the console encoder. Unknown levels log at info.
func New(levelStr, format string) *zap.Logger {
	level, err := zapcore.ParseLevel(levelStr)
	if err != nil || level < zapcore.DebugLevel || level > zapcore.ErrorLevel {
		level = zapcore.InfoLevel
	}

	cfg := zap.NewDevelopmentConfig()
	if format == "json" {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	built, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return built
}

type zapLogger struct {
	z *zap.Logger
}

// NewZapAdapter wraps an existing *zap.Logger.
func NewZapAdapter(l *zap.Logger) Logger {
	return &zapLogger{z: l}
}

// NewTestLogger writes through t so output shows up with the failing test.
func NewTestLogger(t testing.TB) Logger {
	return &zapLogger{z: zaptest.NewLogger(t)}
}

func NewNoOpLogger() Logger {
	return &zapLogger{z: zap.NewNop()}
}

func (l *zapLogger) Debug(msg string, fields map[string]interface{}) {
	l.log(zapcore.DebugLevel, msg, fields)
}

func (l *zapLogger) Info(msg string, fields map[string]interface{}) {
	l.log(zapcore.InfoLevel, msg, fields)
}

func (l *zapLogger) Warn(msg string, fields map[string]interface{}) {
	l.log(zapcore.WarnLevel, msg, fields)
}

func (l *zapLogger) Error(msg string, fields map[string]interface{}) {
	l.log(zapcore.ErrorLevel, msg, fields)
}

func (l *zapLogger) log(level zapcore.Level, msg string, fields map[string]interface{}) {
	if ce := l.z.Check(level, msg); ce != nil {
		ce.Write(zapFields(fields)...)
	}
}

func (l *zapLogger) WithFields(fields map[string]interface{}) Logger {
	return &zapLogger{z: l.z.With(zapFields(fields)...)}
}

func (l *zapLogger) WithError(err error) Logger {
	return &zapLogger{z: l.z.With(zap.Error(err))}
}

// zapFields keeps error values readable: an error under any key is logged
// through zap.NamedError rather than as an opaque object.
func zapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}
