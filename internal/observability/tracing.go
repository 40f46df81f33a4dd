// Package observability provides OpenTelemetry tracer setup.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the application tracer. It defaults to a no-op tracer until
// InitTracer installs a real provider.
var Tracer trace.Tracer = otel.Tracer("inkwell")

// InitTracer configures the global trace provider. exporter is one of
// "off", "stdout" or "otlp". The returned shutdown func flushes pending
// spans; it is a no-op when tracing is off.
func InitTracer(ctx context.Context, exporter, otlpEndpoint string) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	var exp sdktrace.SpanExporter
	var err error
	switch exporter {
	case "", "off":
		return noop, nil
	case "stdout":
		exp, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		exp, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(otlpEndpoint), otlptracehttp.WithInsecure())
	default:
		return noop, fmt.Errorf("unsupported trace exporter %q", exporter)
	}
	if err != nil {
		return noop, fmt.Errorf("create %s exporter: %w", exporter, err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	Tracer = tp.Tracer("inkwell")

	return tp.Shutdown, nil
}
