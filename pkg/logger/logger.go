// Package logger provides structured logging for traverser components.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields carries structured context attached to a log entry.
type Fields map[string]interface{}

// Logger is the logging surface every traverser component depends on.
type Logger interface {
	// Debug logs at debug level. Shown when verbosity >= 1.
	Debug(msg string)

	// Info logs at info level.
	Info(msg string)

	// Warn logs at warn level.
	Warn(msg string)

	// Error logs at error level.
	Error(msg string)

	// Trace logs per-entry detail. Shown when verbosity >= 2.
	Trace(msg string)

	// WithFields returns a child Logger that adds fields to every entry.
	WithFields(fields Fields) Logger
}

// Config controls how NewLogger builds its zap core.
type Config struct {
	// Verbosity selects the level:
	// 0: Info, Warn, Error (default)
	// 1: Debug + level 0
	// 2: Trace + level 1
	Verbosity int

	// Output receives encoded entries. Defaults to os.Stderr.
	Output io.Writer
}

type logger struct {
	zap       *zap.Logger
	verbosity int
}

// NewLogger creates a JSON logger writing to config.Output.
//
// Example:
//
//	log := NewLogger(Config{Verbosity: 1})
//	log.WithFields(Fields{"root": "/srv/data"}).Info("Walk started")
func NewLogger(config Config) Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(config.Output),
		levelFor(config.Verbosity),
	)

	return &logger{
		zap:       zap.New(core),
		verbosity: config.Verbosity,
	}
}

// NewNop returns a Logger that discards everything. Library callers that
// do not care about logs pass this.
func NewNop() Logger {
	return &logger{zap: zap.NewNop()}
}

func levelFor(verbosity int) zapcore.LevelEnabler {
	if verbosity <= 0 {
		return zapcore.InfoLevel
	}
	return zapcore.DebugLevel
}

func (l *logger) Debug(msg string) {
	l.zap.Debug(msg)
}

func (l *logger) Info(msg string) {
	l.zap.Info(msg)
}

func (l *logger) Warn(msg string) {
	l.zap.Warn(msg)
}

func (l *logger) Error(msg string) {
	l.zap.Error(msg)
}

func (l *logger) Trace(msg string) {
	if l.verbosity >= 2 {
		l.zap.Debug("TRACE: " + msg)
	}
}

func (l *logger) WithFields(fields Fields) Logger {
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}

	return &logger{
		zap:       l.zap.With(zapFields...),
		verbosity: l.verbosity,
	}
}
