// Package telemetry configures OpenTelemetry tracing for smoke runs. Spans are
// exported over OTLP/HTTP when an endpoint is configured and dropped
// otherwise.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// InstrumentationName names the tracer used for smoke spans.
const InstrumentationName = "github.com/ggoodman/hevy-mcp-smoke"

// ServiceName is reported as service.name on exported spans.
const ServiceName = "hevy-smoke"

// Span names, one per step of a run.
const (
	SpanRun          = "smoke.run"
	SpanInstall      = "smoke.install"
	SpanOpenSessions = "smoke.open_sessions"
	SpanListTools    = "smoke.list_tools"
	SpanCallTool     = "smoke.call_tool"
)

// Provider owns the tracer provider for the process.
type Provider struct {
	tp       trace.TracerProvider
	shutdown func(context.Context) error
}

// Setup returns an exporting provider when endpoint is non-empty and a no-op
// provider otherwise.
func Setup(ctx context.Context, endpoint string) (*Provider, error) {
	if endpoint == "" {
		return &Provider{
			tp:       noop.NewTracerProvider(),
			shutdown: func(context.Context) error { return nil },
		}, nil
	}

	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, fmt.Errorf("telemetry: create otlp exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", ServiceName))),
	)
	return &Provider{tp: tp, shutdown: tp.Shutdown}, nil
}

// NewProvider wraps an existing tracer provider. Shutdown is the caller's
// responsibility.
func NewProvider(tp trace.TracerProvider) *Provider {
	return &Provider{tp: tp, shutdown: func(context.Context) error { return nil }}
}

// Tracer returns the smoke tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tp.Tracer(InstrumentationName)
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
