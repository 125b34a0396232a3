package observability

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides structured logging with context awareness.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
}

// Field represents a structured log field.
type Field = zap.Field

// NewLogger builds a zap logger. format is "json" or "console".
func NewLogger(level, format string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// ContextLogger adds the chi request id of ctx to every entry
type ContextLogger struct {
	base *zap.Logger
}

// NewContextLogger wraps base
func NewContextLogger(base *zap.Logger) *ContextLogger {
	if base == nil {
		base = zap.NewNop()
	}
	return &ContextLogger{base: base}
}

// Zap returns the underlying logger
func (l *ContextLogger) Zap() *zap.Logger {
	return l.base
}

func (l *ContextLogger) with(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return l.base
	}
	if id := middleware.GetReqID(ctx); id != "" {
		return l.base.With(zap.String("request_id", id))
	}
	return l.base
}

func (l *ContextLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.with(ctx).Debug(msg, fields...)
}

func (l *ContextLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.with(ctx).Info(msg, fields...)
}

func (l *ContextLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.with(ctx).Warn(msg, fields...)
}

func (l *ContextLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.with(ctx).Error(msg, fields...)
}
