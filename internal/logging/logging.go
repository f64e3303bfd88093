// Package logging wraps zap with context-scoped logger propagation,
// so the booking worker, dispatcher, and sweeper all attach the same
// reservation_id/user_id fields without threading a logger through
// every function signature.
package logging

import (
	"context"
	"os"
	"sync"
	"time"

	"go.elastic.co/apm/module/apmzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey string

const loggerKey ctxKey = "logger"

var (
	defaultLogger *zap.Logger
	once          sync.Once
)

// WithLogger returns a new context carrying the given logger.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or the package default.
// Always returns a non-nil *zap.Logger.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return GetLogger()
	}
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return GetLogger()
}

// GetLogger returns the singleton default logger, built on first use.
func GetLogger() *zap.Logger {
	once.Do(func() {
		if err := initDefaultLogger(); err != nil {
			fallback := zap.NewExample()
			fallback.Warn("failed to initialize logger, using fallback", zap.Error(err))
			defaultLogger = fallback
		}
	})
	if defaultLogger == nil {
		defaultLogger = zap.NewNop()
	}
	return defaultLogger
}

// New builds a zap.Logger according to the LOG_LEVEL/APP_ENV
// environment and wraps it with the APM core. Callers are responsible
// for calling Sync() at shutdown.
func New(level, format string) (*zap.Logger, error) {
	var cfg zap.Config
	if format == "console" || os.Getenv("APP_ENV") == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	apmCore := &apmzap.Core{FatalFlushTimeout: 10 * time.Second}
	return cfg.Build(zap.WrapCore(apmCore.WrapCore))
}

func initDefaultLogger() error {
	l, err := New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	if err != nil {
		return err
	}
	defaultLogger = l
	return nil
}

// Sync flushes any buffered log entries, ignoring the common
// stdout/stderr sync error on some platforms.
func Sync(l *zap.Logger) {
	if l == nil {
		return
	}
	_ = l.Sync()
}

// WithTraceFields tags l with the trace_id/span_id active in ctx, so a
// log line can be correlated with the OTLP span it happened inside.
// Returns l unchanged if ctx carries no valid span.
func WithTraceFields(ctx context.Context, l *zap.Logger) *zap.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}
