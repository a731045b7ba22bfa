// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logger wraps zap for the CLI. Stdout is reserved for reports and
// progress lines, so log output goes to stderr. The logger travels in a
// context.Context; every run gets a run_id field so interleaved output from
// scripted runs can be told apart.
package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

// global is used when a context carries no logger.
var global = New(zap.NewAtomicLevelAt(zap.InfoLevel), os.Stderr)

// New creates a sugared logger with a console encoder writing to w.
func New(level zapcore.LevelEnabler, w io.Writer) *zap.SugaredLogger {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:       "message",
		LevelKey:         "level",
		TimeKey:          "time",
		NameKey:          "logger",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)
	return zap.New(core).Sugar()
}

// ParseLogLevel converts a level name to a zap level. Unknown names map to
// info and report false.
func ParseLogLevel(s string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// ForRun builds a logger at the named level tagged with a fresh run_id.
func ForRun(level string, w io.Writer) *zap.SugaredLogger {
	lvl, _ := ParseLogLevel(level)
	return New(zap.NewAtomicLevelAt(lvl), w).With("run_id", uuid.NewString())
}

// ToContext returns a copy of ctx carrying l.
func ToContext(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or the global logger.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok {
			return l
		}
	}
	return global
}

// WithKV returns a context whose logger carries the given key-value pairs.
func WithKV(ctx context.Context, kvs ...any) context.Context {
	return ToContext(ctx, FromContext(ctx).With(kvs...))
}

// DebugKV writes a debug message with key-value pairs.
func DebugKV(ctx context.Context, msg string, kvs ...any) {
	FromContext(ctx).Debugw(msg, kvs...)
}

// InfoKV writes an info message with key-value pairs.
func InfoKV(ctx context.Context, msg string, kvs ...any) {
	FromContext(ctx).Infow(msg, kvs...)
}

// WarnKV writes a warning with key-value pairs.
func WarnKV(ctx context.Context, msg string, kvs ...any) {
	FromContext(ctx).Warnw(msg, kvs...)
}

// Sync flushes the logger in ctx.
func Sync(ctx context.Context) {
	_ = FromContext(ctx).Sync()
}
