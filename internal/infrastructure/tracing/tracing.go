package tracing

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the tracer name used for spans around upstream calls.
const InstrumentationName = "3tcapital/ms_consulta_ibge"

// Settings configures span export.
type Settings struct {
	Enabled     bool
	ZipkinURL   string
	ServiceName string
}

// ShutdownFunc flushes pending spans and releases the exporter.
type ShutdownFunc func(context.Context) error

// Setup installs a global tracer provider exporting to Zipkin when enabled.
// When disabled the global no-op provider is left in place.
func Setup(settings Settings, log *slog.Logger) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }
	if !settings.Enabled {
		return noop, nil
	}
	if settings.ZipkinURL == "" {
		return noop, errors.New("zipkin url is required when tracing is enabled")
	}

	exporter, err := zipkin.New(settings.ZipkinURL)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(settings.ServiceName),
		)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	if log != nil {
		log.Info("Tracing enabled", "exporter", "zipkin", "url", settings.ZipkinURL)
	}
	return tp.Shutdown, nil
}

// Tracer returns the service tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}
