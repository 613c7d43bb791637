// Package telemetry configures OpenTelemetry tracing when an OTLP endpoint is set.
package telemetry

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/cmlabs-hris/checkin-backend-go"

// Setup installs a batching OTLP/gRPC tracer provider and returns its shutdown func.
// Without OTEL_EXPORTER_OTLP_ENDPOINT it is a no-op and spans go to the global no-op provider.
func Setup(serviceName string) func(context.Context) error {
	noop := func(context.Context) error { return nil }

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return noop
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true" {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(context.Background(), opts...)
	if err != nil {
		slog.Error("Failed to create OTLP exporter", "error", err)
		return noop
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		slog.Warn("Failed to build telemetry resource", "error", err)
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	slog.Info("Tracing enabled", "endpoint", endpoint, "service", serviceName)

	return provider.Shutdown
}

// Tracer returns the tracer used by the service layer.
func Tracer() oteltrace.Tracer {
	return otel.Tracer(instrumentationName)
}
