package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestProvider(t *testing.T) (*MetricsProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp, err := NewMetricsProvider(context.Background(), MetricsConfig{ServiceName: "navigation-test"}, reader)
	if err != nil {
		t.Fatalf("NewMetricsProvider() error = %v", err)
	}
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

// counterValues returns the data points of the named int64 counter keyed by
// the value of attribute key.
func counterValues(t *testing.T, reader *sdkmetric.ManualReader, name string, key attribute.Key) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is %T, want Sum[int64]", name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(key)
				out[v.Emit()] += dp.Value
			}
		}
	}
	return out
}

func TestNavigationMetrics(t *testing.T) {
	mp, reader := newTestProvider(t)
	nm, err := NewNavigationMetrics(mp.Meter())
	if err != nil {
		t.Fatalf("NewNavigationMetrics() error = %v", err)
	}

	ctx := context.Background()
	nm.ObserveProviderCall(ctx, "osrm", "route", 120*time.Millisecond, nil)
	nm.ObserveProviderCall(ctx, "osrm", "route", 3*time.Second, errors.New("timeout"))
	nm.ObserveProviderCall(ctx, "nominatim", "search", 80*time.Millisecond, nil)
	nm.RecordGeocode(ctx, "nominatim")
	nm.RecordGeocode(ctx, "cache")
	nm.RecordGeocode(ctx, "cache")
	nm.RecordWeatherCache(ctx, true)
	nm.RecordWeatherCache(ctx, false)
	nm.RecordWeatherCache(ctx, true)

	outcomes := counterValues(t, reader, "navigation_provider_calls_total", "outcome")
	if outcomes["success"] != 2 || outcomes["error"] != 1 {
		t.Errorf("provider call outcomes = %v", outcomes)
	}

	sources := counterValues(t, reader, "navigation_geocodes_total", "source")
	if sources["cache"] != 2 || sources["nominatim"] != 1 {
		t.Errorf("geocode sources = %v", sources)
	}

	results := counterValues(t, reader, "navigation_weather_cache_lookups_total", "result")
	if results["hit"] != 2 || results["miss"] != 1 {
		t.Errorf("weather cache results = %v", results)
	}
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	mp, reader := newTestProvider(t)
	hm, err := NewHTTPMetrics(mp.Meter())
	if err != nil {
		t.Fatalf("NewHTTPMetrics() error = %v", err)
	}

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(hm))
	r.Get("/v1/plus-codes/{code}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/v1/missing/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/v1/plus-codes/9C3XGV2C+2X", "/v1/plus-codes/8FVC9G8F+6W", "/v1/missing/1"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	routes := counterValues(t, reader, "http_requests_total", "route")
	if routes["/v1/plus-codes/{code}"] != 2 {
		t.Errorf("routes = %v", routes)
	}
	classes := counterValues(t, reader, "http_requests_total", "status_class")
	if classes["2xx"] != 2 || classes["4xx"] != 1 {
		t.Errorf("status classes = %v", classes)
	}
}

func TestTracingMiddleware_PassesThrough(t *testing.T) {
	handler := TracingMiddleware(noop.NewTracerProvider().Tracer("test"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/v1/weather", nil))

	if w.Code != http.StatusAccepted || w.Body.String() != "ok" {
		t.Errorf("status = %d body = %q", w.Code, w.Body.String())
	}
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{200: "2xx", 302: "3xx", 429: "4xx", 503: "5xx", 100: "unknown"}
	for status, want := range tests {
		if got := statusClass(status); got != want {
			t.Errorf("statusClass(%d) = %s, want %s", status, got, want)
		}
	}
}

func TestEndpointOptions(t *testing.T) {
	tests := []struct {
		endpoint     string
		wantHost     string
		wantInsecure bool
	}{
		{"http://otel-collector:4318", "otel-collector:4318", true},
		{"https://otlp.example.com", "otlp.example.com", false},
		{"collector:4318", "collector:4318", false},
	}
	for _, tt := range tests {
		host, insecure := endpointOptions(tt.endpoint)
		if host != tt.wantHost || insecure != tt.wantInsecure {
			t.Errorf("endpointOptions(%q) = %q, %v", tt.endpoint, host, insecure)
		}
	}
}
