package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumPoint returns the value of the int64 sum data point of metric name that
// carries attribute key=value. It fails the test if none exists.
func sumPoint(t *testing.T, rm metricdata.ResourceMetrics, name, key, value string) int64 {
	t.Helper()
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is not a sum", name)
	}
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			return dp.Value
		}
	}
	t.Fatalf("metric %q has no data point with %s=%s", name, key, value)
	return 0
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestHistogramObservation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	histograms := []struct {
		name string
		h    metric.Float64Histogram
	}{
		{"techtranslator.tool.duration", m.ToolDuration},
		{"techtranslator.upstream.duration", m.UpstreamDuration},
	}

	for _, tc := range histograms {
		tc.h.Record(ctx, 1.5)
		tc.h.Record(ctx, 12.0)
	}

	rm := collect(t, reader)

	for _, tc := range histograms {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			if met == nil {
				t.Fatalf("metric %q not found", tc.name)
			}
			hist, ok := met.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatalf("metric %q is not a histogram", tc.name)
			}
			if len(hist.DataPoints) == 0 {
				t.Fatalf("metric %q has no data points", tc.name)
			}
			if got := hist.DataPoints[0].Count; got != 2 {
				t.Errorf("sample count = %d, want 2", got)
			}
		})
	}
}

func TestRecordToolCall(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordToolCall(ctx, "tech_translator", "ok", 2.1)
	m.RecordToolCall(ctx, "tech_translator", "ok", 3.4)
	m.RecordToolCall(ctx, "tech_translator", "unauthorized", 0.001)

	rm := collect(t, reader)
	if got := sumPoint(t, rm, "techtranslator.tool.calls", "status", "ok"); got != 2 {
		t.Errorf("ok calls = %d, want 2", got)
	}
	if got := sumPoint(t, rm, "techtranslator.tool.calls", "status", "unauthorized"); got != 1 {
		t.Errorf("unauthorized calls = %d, want 1", got)
	}

	hist, ok := findMetric(rm, "techtranslator.tool.duration").Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) == 0 {
		t.Fatal("tool duration histogram missing")
	}
	if got := hist.DataPoints[0].Count; got != 3 {
		t.Errorf("duration samples = %d, want 3", got)
	}
}

func TestRecordUpstreamRequest(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordUpstreamRequest(ctx, "openrouter", "ok", 4.2)
	m.RecordUpstreamRequest(ctx, "openrouter", "error", 30)

	rm := collect(t, reader)
	if got := sumPoint(t, rm, "techtranslator.upstream.requests", "status", "error"); got != 1 {
		t.Errorf("error requests = %d, want 1", got)
	}
}

func TestRecordUpstreamError(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordUpstreamError(ctx, "openrouter", "rate_limited")

	rm := collect(t, reader)
	if got := sumPoint(t, rm, "techtranslator.upstream.errors", "kind", "rate_limited"); got != 1 {
		t.Errorf("rate_limited errors = %d, want 1", got)
	}
}

func TestRecordUpstreamTokens(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordUpstreamTokens(ctx, "openrouter", 120, 480)
	m.RecordUpstreamTokens(ctx, "openrouter", 0, 20)

	rm := collect(t, reader)
	if got := sumPoint(t, rm, "techtranslator.upstream.tokens", "type", "prompt"); got != 120 {
		t.Errorf("prompt tokens = %d, want 120", got)
	}
	if got := sumPoint(t, rm, "techtranslator.upstream.tokens", "type", "completion"); got != 500 {
		t.Errorf("completion tokens = %d, want 500", got)
	}
}

func TestInflightGauge(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.InflightTranslations.Add(ctx, 1)
	m.InflightTranslations.Add(ctx, 1)
	m.InflightTranslations.Add(ctx, -1)

	rm := collect(t, reader)
	met := findMetric(rm, "techtranslator.inflight_translations")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) == 0 {
		t.Fatal("metric is not a sum with data points")
	}
	if got := sum.DataPoints[0].Value; got != 1 {
		t.Errorf("gauge value = %d, want 1", got)
	}
}

func TestHTTPRequestDuration(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.HTTPRequestDuration.Record(ctx, 0.05,
		metric.WithAttributes(
			attribute.String("method", "GET"),
			attribute.String("route", "/healthz"),
			attribute.String("status", "200"),
		),
	)

	rm := collect(t, reader)
	met := findMetric(rm, "techtranslator.http.request.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if got := hist.DataPoints[0].Count; got != 1 {
		t.Errorf("sample count = %d, want 1", got)
	}
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	// DefaultMetrics uses the global OTel provider so we just check
	// that repeated calls return the same pointer.
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different pointers")
	}
}
