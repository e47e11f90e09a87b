package telemetry

import (
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// newResource creates a resource describing the service.
func newResource(cfg *Config) (*resource.Resource, error) {
	// Create a standalone resource to avoid schema URL conflicts with
	// resource.Default(), which may use a different semconv version.
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	), nil
}

// newTracerProvider creates a local TracerProvider. automod has no trace
// collector to export to; the provider exists to generate trace/span IDs
// for log correlation, not to ship spans anywhere. Tests attach a recording
// exporter via WithTraceExporter.
func newTracerProvider(cfg *Config, res *resource.Resource, opts ...TracerProviderOption) *trace.TracerProvider {
	o := &tracerProviderOptions{}
	for _, opt := range opts {
		opt(o)
	}

	var sampler trace.Sampler
	switch {
	case cfg.Sampling.Rate >= 1.0:
		sampler = trace.AlwaysSample()
	case cfg.Sampling.Rate <= 0:
		sampler = trace.NeverSample()
	default:
		sampler = trace.TraceIDRatioBased(cfg.Sampling.Rate)
	}
	sampler = trace.ParentBased(sampler)

	tpOpts := []trace.TracerProviderOption{
		trace.WithResource(res),
		trace.WithSampler(sampler),
	}
	if o.exporter != nil {
		tpOpts = append(tpOpts, trace.WithBatcher(o.exporter))
	}
	if o.spanProcessor != nil {
		tpOpts = append(tpOpts, trace.WithSpanProcessor(o.spanProcessor))
	}

	return trace.NewTracerProvider(tpOpts...)
}

// TracerProviderOption configures TracerProvider creation.
type TracerProviderOption func(*tracerProviderOptions)

type tracerProviderOptions struct {
	exporter      trace.SpanExporter
	spanProcessor trace.SpanProcessor
}

// WithTraceExporter attaches a span exporter (for testing; automod ships no
// exporter in production since there is no collector to send spans to).
func WithTraceExporter(exp trace.SpanExporter) TracerProviderOption {
	return func(opts *tracerProviderOptions) {
		opts.exporter = exp
	}
}

// WithSpanProcessor attaches a span processor directly (for testing with a
// tracetest.SpanRecorder).
func WithSpanProcessor(sp trace.SpanProcessor) TracerProviderOption {
	return func(opts *tracerProviderOptions) {
		opts.spanProcessor = sp
	}
}
