// Package telemetry configures OpenTelemetry tracing for pipectl.
//
// Every backend call gets a client span named after its method and resource.
// Reads additionally get a caller span recording whether the caller joined a
// call that was already in flight.
//
// Custom span attributes use the `pipectl.` prefix.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/cuemby/pipectl"

	AttrRequestKey   = "pipectl.request.key"
	AttrDedupeShared = "pipectl.dedupe.shared"
	AttrResource     = "pipectl.resource"
)

// Tracer returns the package-level tracer
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// InitTraceProvider installs an OTLP gRPC trace provider. An empty endpoint
// leaves tracing disabled. The returned function flushes and shuts the
// provider down.
func InitTraceProvider(ctx context.Context, endpoint string, version string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String("pipectl"),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// StartRequestSpan creates a client span for one HTTP call to the backend
func StartRequestSpan(ctx context.Context, method, resource, requestKey string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "api."+method+" "+resource,
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String(AttrResource, resource),
			attribute.String(AttrRequestKey, requestKey),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndRequestSpan records the response status and ends the span
func EndRequestSpan(span trace.Span, statusCode int, err error) {
	if statusCode > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", statusCode))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// StartReadSpan creates the caller span for a de-duplicated read
func StartReadSpan(ctx context.Context, resource, requestKey string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "read "+resource,
		trace.WithAttributes(
			attribute.String(AttrResource, resource),
			attribute.String(AttrRequestKey, requestKey),
		),
	)
}

// EndReadSpan records whether the caller joined an in-flight call
func EndReadSpan(span trace.Span, shared bool, err error) {
	span.SetAttributes(attribute.Bool(AttrDedupeShared, shared))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
