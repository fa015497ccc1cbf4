// Package telemetry configures OpenTelemetry tracing for the service.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/JaimeStill/patentbot/pkg/lifecycle"
)

// Setup installs a global tracer provider exporting over OTLP/HTTP.
// When the config is inactive it installs nothing and returns a no-op
// shutdown. The returned function flushes pending spans.
func Setup(ctx context.Context, cfg *Config) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	if !cfg.Active() {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Start runs Setup and registers the flush with the lifecycle coordinator.
func Start(lc *lifecycle.Coordinator, cfg *Config, logger *slog.Logger) error {
	logger = logger.With("system", "telemetry")

	shutdown, err := Setup(lc.Context(), cfg)
	if err != nil {
		return err
	}
	if !cfg.Active() {
		logger.Info("tracing disabled")
		return nil
	}
	logger.Info("tracing enabled", "endpoint", cfg.Endpoint, "service", cfg.ServiceName)

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		// the coordinator context is already cancelled; flush on a fresh one
		if err := shutdown(context.Background()); err != nil {
			logger.Error("trace flush failed", "error", err)
		}
	})
	return nil
}
