// Package observe provides application-wide observability primitives for
// techtranslator: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is installed by [InitProvider] so that metrics can be
// scraped via the /metrics endpoint. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/MrWong99/techtranslator"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// ToolDuration tracks end-to-end MCP tool invocation latency. Use with
	// attribute.String("tool", ...).
	ToolDuration metric.Float64Histogram

	// UpstreamDuration tracks the latency of the single upstream LLM call.
	// Use with attribute.String("provider", ...).
	UpstreamDuration metric.Float64Histogram

	// --- Counters ---

	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// UpstreamRequests counts upstream LLM calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	UpstreamRequests metric.Int64Counter

	// UpstreamTokens counts tokens reported by the upstream. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("type", "prompt"|"completion")
	UpstreamTokens metric.Int64Counter

	// --- Error counters ---

	// UpstreamErrors counts upstream failures. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	UpstreamErrors metric.Int64Counter

	// --- Gauges ---

	// InflightTranslations tracks translations currently waiting on the upstream.
	InflightTranslations metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time, labelled with
	// "method", "route" and "status".
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// hosted-model completion latencies, up to and past the default 30s timeout.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ToolDuration, err = m.Float64Histogram("techtranslator.tool.duration",
		metric.WithDescription("Latency of MCP tool invocations."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.UpstreamDuration, err = m.Float64Histogram("techtranslator.upstream.duration",
		metric.WithDescription("Latency of the upstream LLM completion call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ToolCalls, err = m.Int64Counter("techtranslator.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.UpstreamRequests, err = m.Int64Counter("techtranslator.upstream.requests",
		metric.WithDescription("Total upstream LLM requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.UpstreamTokens, err = m.Int64Counter("techtranslator.upstream.tokens",
		metric.WithDescription("Total tokens reported by the upstream by provider and type."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.UpstreamErrors, err = m.Int64Counter("techtranslator.upstream.errors",
		metric.WithDescription("Total upstream failures by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.InflightTranslations, err = m.Int64UpDownCounter("techtranslator.inflight_translations",
		metric.WithDescription("Number of translations currently waiting on the upstream."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("techtranslator.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordToolCall records one tool invocation with its outcome and latency.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string, seconds float64) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
	m.ToolDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("tool", tool)),
	)
}

// RecordUpstreamRequest records one upstream call with its outcome and latency.
func (m *Metrics) RecordUpstreamRequest(ctx context.Context, provider, status string, seconds float64) {
	m.UpstreamRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
	m.UpstreamDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("provider", provider)),
	)
}

// RecordUpstreamError records an upstream failure of the given kind.
func (m *Metrics) RecordUpstreamError(ctx context.Context, provider, kind string) {
	m.UpstreamErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordUpstreamTokens adds the prompt and completion token counts reported
// by the upstream. Zero counts are skipped.
func (m *Metrics) RecordUpstreamTokens(ctx context.Context, provider string, prompt, completion int) {
	if prompt > 0 {
		m.UpstreamTokens.Add(ctx, int64(prompt), metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("type", "prompt"),
		))
	}
	if completion > 0 {
		m.UpstreamTokens.Add(ctx, int64(completion), metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("type", "completion"),
		))
	}
}
