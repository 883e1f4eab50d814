package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestInstrumentUsesRoutePattern(t *testing.T) {
	m := NewMonitor("goguard-test")

	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/api/tenants/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tenants/"+id, nil))
	}

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var found bool
	for _, f := range families {
		if f.GetName() != "http_requests_total" {
			continue
		}
		if len(f.GetMetric()) != 1 {
			t.Fatalf("expected one series, got %d", len(f.GetMetric()))
		}
		metric := f.GetMetric()[0]
		labels := map[string]string{}
		for _, l := range metric.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		if labels["route"] != "/api/tenants/{id}" || labels["status"] != "202" || labels["service"] != "goguard-test" {
			t.Fatalf("labels = %v", labels)
		}
		if metric.GetCounter().GetValue() != 3 {
			t.Fatalf("count = %v", metric.GetCounter().GetValue())
		}
		found = true
	}
	if !found {
		t.Fatal("http_requests_total not gathered")
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	m := NewMonitor("goguard-test")
	m.Instrument(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `route="unmatched"`) {
		t.Fatalf("unexpected exposition %d:\n%s", rec.Code, rec.Body.String())
	}
}
