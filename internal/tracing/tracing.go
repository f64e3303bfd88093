// Package tracing configures the process-wide OpenTelemetry
// TracerProvider, exporting spans over OTLP/gRPC so the booking
// worker's portal HTTP calls, SSE waits, and the admin API can be
// correlated end to end in a trace backend. Disabled by default: a
// worker with no collector reachable should never block on dial.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"wodbooker-go/internal/config"
)

// Shutdown flushes and tears down the TracerProvider; safe to call
// even when tracing was never enabled.
type Shutdown func(ctx context.Context) error

// Setup installs a global TracerProvider per cfg. When cfg.Enabled is
// false it leaves otel's default no-op provider in place and returns a
// Shutdown that does nothing, so call sites never need to branch on
// whether tracing is on.
func Setup(ctx context.Context, cfg config.TracingConfig, serviceName string, logger *zap.Logger) (Shutdown, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.OTLPAddr), otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	ratio := cfg.SampleRatio
	if ratio <= 0 {
		ratio = 1.0
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("tracing enabled", zap.String("otlp_addr", cfg.OTLPAddr), zap.Float64("sample_ratio", ratio))

	return tp.Shutdown, nil
}
