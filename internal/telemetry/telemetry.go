// Package telemetry provides OpenTelemetry tracing for chronicle operations.
package telemetry

import (
	"context"
	"os"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultServiceName = "chronicle"
	serviceVersion     = "0.1.0"
	instrumentation    = "github.com/lawnchairsociety/chronicle/"
)

// Config controls whether spans are exported.
type Config struct {
	Enabled     bool
	ServiceName string
}

// Setup installs an OTLP HTTP exporter as the global tracer provider. The
// exporter reads the standard OTEL_EXPORTER_OTLP_* environment variables.
// When tracing is disabled the global no-op provider stays in place.
//
// Returns a shutdown function that should be called on application exit.
func Setup(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	tp, err := newProvider(ctx, cfg.ServiceName, sdktrace.WithBatcher(exporter))
	if err != nil {
		return nil, err
	}
	install(tp)
	return tp.Shutdown, nil
}

func newProvider(ctx context.Context, serviceName string, processor sdktrace.TracerProviderOption) (*sdktrace.TracerProvider, error) {
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	// Built without resource.Default() to avoid schema URL conflicts.
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
			attribute.String("host.name", hostname()),
			attribute.String("os.type", runtime.GOOS),
			attribute.String("process.runtime.name", "go"),
			attribute.String("process.runtime.version", runtime.Version()),
		),
	)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(processor, sdktrace.WithResource(res)), nil
}

func install(tp trace.TracerProvider) {
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
}

// Tracer returns a named tracer for the given component.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(instrumentation + name)
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
