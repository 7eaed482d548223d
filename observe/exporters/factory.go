// Package exporters creates OpenTelemetry trace exporters and metric readers
// by name, so exporter choice can live in configuration.
package exporters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	// ErrUnknownExporter indicates an exporter name with no factory.
	ErrUnknownExporter = errors.New("exporters: unknown exporter")

	// ErrEndpointNotConfigured indicates a required endpoint environment
	// variable is not set.
	ErrEndpointNotConfigured = errors.New("exporters: endpoint not configured")
)

// Stdout is where the stdout exporters write. Tests may replace it.
var Stdout io.Writer = os.Stdout

type traceFactory func(ctx context.Context) (sdktrace.SpanExporter, error)

type metricFactory func(ctx context.Context) (sdkmetric.Reader, error)

var traceFactories = map[string]traceFactory{
	"stdout": func(context.Context) (sdktrace.SpanExporter, error) {
		return stdouttrace.New(stdouttrace.WithWriter(Stdout))
	},
	"otlp": func(ctx context.Context) (sdktrace.SpanExporter, error) {
		if err := requireEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx)
	},
	// Jaeger ingests OTLP natively.
	"jaeger": func(ctx context.Context) (sdktrace.SpanExporter, error) {
		if err := requireEnv("OTEL_EXPORTER_JAEGER_ENDPOINT"); err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx)
	},
	"none": discardTraces,
	"":     discardTraces,
}

var metricFactories = map[string]metricFactory{
	"stdout": func(context.Context) (sdkmetric.Reader, error) {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(Stdout))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	},
	"otlp": func(ctx context.Context) (sdkmetric.Reader, error) {
		if err := requireEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"); err != nil {
			return nil, err
		}
		exp, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	},
	"prometheus": func(context.Context) (sdkmetric.Reader, error) {
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		return exp, nil
	},
	"none": discardMetrics,
	"":     discardMetrics,
}

func discardTraces(context.Context) (sdktrace.SpanExporter, error) {
	return stdouttrace.New(stdouttrace.WithWriter(io.Discard))
}

func discardMetrics(context.Context) (sdkmetric.Reader, error) {
	return sdkmetric.NewManualReader(), nil
}

// requireEnv succeeds when any of keys is set.
func requireEnv(keys ...string) error {
	for _, k := range keys {
		if os.Getenv(k) != "" {
			return nil
		}
	}
	return fmt.Errorf("%w: set %v", ErrEndpointNotConfigured, keys)
}

// NewTracingExporter creates a span exporter by name.
// Supported: stdout, otlp, jaeger, none.
func NewTracingExporter(ctx context.Context, name string) (sdktrace.SpanExporter, error) {
	f, ok := traceFactories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, name)
	}
	return f(ctx)
}

// NewMetricsReader creates a metrics reader by name.
// Supported: stdout, otlp, prometheus, none.
func NewMetricsReader(ctx context.Context, name string) (sdkmetric.Reader, error) {
	f, ok := metricFactories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, name)
	}
	return f(ctx)
}

// TracingExporters lists the accepted tracing exporter names.
func TracingExporters() []string { return names(traceFactories) }

// MetricsExporters lists the accepted metrics exporter names.
func MetricsExporters() []string { return names(metricFactories) }

func names[F any](m map[string]F) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
