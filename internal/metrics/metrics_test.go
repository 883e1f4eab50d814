package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestDisabledNoIncrement(t *testing.T) {
	m := New(Config{Enabled: false})
	m.Inc(MetricLoginSuccess)
	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if len(m.Snapshot().Counters) != 0 {
		t.Fatal("disabled snapshot should be empty")
	}
}

func TestConcurrentIncrement(t *testing.T) {
	m := New(Config{Enabled: true})

	const goroutines = 16
	const perG = 2000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricWAFBlocked)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricWAFBlocked); got != goroutines*perG {
		t.Fatalf("expected %d, got %d", goroutines*perG, got)
	}
}

func TestAdd(t *testing.T) {
	m := New(Config{Enabled: true})
	m.Add(MetricRefreshSwept, 42)
	m.Add(MetricRefreshSwept, 0)
	m.Add(MetricIDCount, 1)
	if got := m.Value(MetricRefreshSwept); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestHistogramBuckets(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})

	for _, d := range []time.Duration{
		time.Millisecond,
		8 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		90 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		2 * time.Second,
	} {
		m.Observe(MetricAuthenticateLatency, d)
	}
	m.Observe(MetricLoginSuccess, time.Millisecond)

	s := m.Snapshot()
	buckets := s.Histograms[MetricAuthenticateLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d = %d, want 1", i, v)
		}
	}
	if _, ok := s.Counters[MetricAuthenticateLatency]; ok {
		t.Fatal("histogram ids must not appear as counters")
	}
}

func TestHistogramDisabledWithoutLatency(t *testing.T) {
	m := New(Config{Enabled: true})
	m.Observe(MetricAuthenticateLatency, time.Millisecond)
	if _, ok := m.Snapshot().Histograms[MetricAuthenticateLatency]; ok {
		t.Fatal("histogram must be absent when latency is disabled")
	}
}
