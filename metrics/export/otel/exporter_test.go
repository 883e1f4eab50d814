package otel

import (
	"context"
	"sync"
	"testing"

	goGuard "github.com/MrEthical07/goGuard"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot goGuard.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() goGuard.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goGuard.MetricsSnapshot{
		Counters:   make(map[goGuard.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[goGuard.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), buckets...)
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newReader(t *testing.T, src MetricsSource) (*sdkmetric.ManualReader, *Exporter) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	exp, err := NewExporter(provider.Meter("goguard-test"), src)
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	t.Cleanup(func() {
		if err := exp.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return reader, exp
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestExporterCollectsCountersAndBuckets(t *testing.T) {
	reader, _ := newReader(t, &fakeSource{
		snapshot: goGuard.MetricsSnapshot{
			Counters: map[goGuard.MetricID]uint64{goGuard.MetricLoginSuccess: 3},
			Histograms: map[goGuard.MetricID][]uint64{
				goGuard.MetricAuthenticateLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	})

	metrics := collect(t, reader)

	sum, ok := metrics["goguard_login_success_total"].Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 3 {
		t.Fatalf("login success = %+v", metrics["goguard_login_success_total"].Data)
	}

	gauge, ok := metrics["goguard_authenticate_latency_seconds_bucket"].Data.(metricdata.Gauge[int64])
	if !ok || len(gauge.DataPoints) != 8 {
		t.Fatalf("bucket gauge = %+v", metrics["goguard_authenticate_latency_seconds_bucket"].Data)
	}
	for _, dp := range gauge.DataPoints {
		if le, _ := dp.Attributes.Value(attribute.Key("le")); le.AsString() == "+Inf" && dp.Value != 8 {
			t.Fatalf("+Inf bucket = %d", dp.Value)
		}
	}

	dropped, ok := metrics["goguard_audit_dropped_total"].Data.(metricdata.Sum[int64])
	if !ok || dropped.DataPoints[0].Value != 1 {
		t.Fatalf("audit dropped = %+v", metrics["goguard_audit_dropped_total"].Data)
	}
}

func TestExporterRejectsNilArguments(t *testing.T) {
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	if _, err := NewExporter(provider.Meter("goguard-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewExporter(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterConcurrentCollect(t *testing.T) {
	src := &fakeSource{
		snapshot: goGuard.MetricsSnapshot{
			Counters:   map[goGuard.MetricID]uint64{goGuard.MetricLoginSuccess: 1},
			Histograms: map[goGuard.MetricID][]uint64{},
		},
	}
	reader, _ := newReader(t, src)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[goGuard.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
