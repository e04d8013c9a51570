package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string // OTLP endpoint; empty keeps metrics in-process only
	Interval       time.Duration
}

// MetricsProvider provides metrics functionality.
type MetricsProvider struct {
	provider *sdkmetric.MeterProvider
	meter    metric.Meter
}

// NewMetricsProvider creates a meter provider, pushing to the OTLP endpoint
// when one is configured, and installs it as the global provider. Extra
// readers are attached as well; tests pass a ManualReader.
func NewMetricsProvider(ctx context.Context, config MetricsConfig, readers ...sdkmetric.Reader) (*MetricsProvider, error) {
	res, err := newResource(ctx, config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if config.Endpoint != "" {
		host, insecure := endpointOptions(config.Endpoint)
		exporterOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(host)}
		if insecure {
			exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create metric exporter: %w", err)
		}

		interval := config.Interval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))))
	}
	for _, r := range readers {
		opts = append(opts, sdkmetric.WithReader(r))
	}

	provider := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(provider)

	return &MetricsProvider{
		provider: provider,
		meter:    provider.Meter(config.ServiceName),
	}, nil
}

// Meter returns the meter for creating instruments.
func (m *MetricsProvider) Meter() metric.Meter {
	return m.meter
}

// Shutdown flushes and shuts down the metrics provider.
func (m *MetricsProvider) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

// HTTPMetrics provides HTTP-related metrics.
type HTTPMetrics struct {
	requestsTotal   metric.Int64Counter
	requestDuration metric.Float64Histogram
	responseSize    metric.Int64Histogram
	activeRequests  metric.Int64UpDownCounter
}

// NewHTTPMetrics creates HTTP metrics.
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	requestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}

	responseSize, err := meter.Int64Histogram(
		"http_response_size_bytes",
		metric.WithDescription("HTTP response size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		requestsTotal:   requestsTotal,
		requestDuration: requestDuration,
		responseSize:    responseSize,
		activeRequests:  activeRequests,
	}, nil
}

// RecordRequest records HTTP request metrics. route is the matched route
// pattern, not the raw path.
func (m *HTTPMetrics) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration, respSize int64) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status_code", status),
		attribute.String("status_class", statusClass(status)),
	)

	m.requestsTotal.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)
	m.responseSize.Record(ctx, respSize, attrs)
}

func statusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// MetricsMiddleware creates an HTTP middleware that records metrics.
func MetricsMiddleware(metrics *HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			metrics.activeRequests.Add(ctx, 1)
			defer metrics.activeRequests.Add(ctx, -1)

			start := time.Now()
			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			metrics.RecordRequest(ctx, r.Method, routePattern(r), wrapped.status, time.Since(start), int64(wrapped.size))
		})
	}
}

// NavigationMetrics records provider calls, geocode resolutions and weather
// cache lookups. It satisfies maps.CallObserver, geocode.Recorder and
// weather.CacheRecorder.
type NavigationMetrics struct {
	providerCalls    metric.Int64Counter
	providerDuration metric.Float64Histogram
	geocodes         metric.Int64Counter
	weatherCache     metric.Int64Counter
}

// NewNavigationMetrics creates the navigation instruments.
func NewNavigationMetrics(meter metric.Meter) (*NavigationMetrics, error) {
	providerCalls, err := meter.Int64Counter(
		"navigation_provider_calls_total",
		metric.WithDescription("Calls to external map providers"),
		metric.WithUnit("{calls}"),
	)
	if err != nil {
		return nil, err
	}

	providerDuration, err := meter.Float64Histogram(
		"navigation_provider_call_duration_seconds",
		metric.WithDescription("External map provider call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15),
	)
	if err != nil {
		return nil, err
	}

	geocodes, err := meter.Int64Counter(
		"navigation_geocodes_total",
		metric.WithDescription("Property geocode resolutions by source"),
		metric.WithUnit("{geocodes}"),
	)
	if err != nil {
		return nil, err
	}

	weatherCache, err := meter.Int64Counter(
		"navigation_weather_cache_lookups_total",
		metric.WithDescription("Weather cache lookups by result"),
		metric.WithUnit("{lookups}"),
	)
	if err != nil {
		return nil, err
	}

	return &NavigationMetrics{
		providerCalls:    providerCalls,
		providerDuration: providerDuration,
		geocodes:         geocodes,
		weatherCache:     weatherCache,
	}, nil
}

// ObserveProviderCall records one provider call.
func (m *NavigationMetrics) ObserveProviderCall(ctx context.Context, provider, operation string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.providerCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
	m.providerDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
	))
}

// RecordGeocode records a geocode resolution from source.
func (m *NavigationMetrics) RecordGeocode(ctx context.Context, source string) {
	m.geocodes.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordWeatherCache records a weather cache hit or miss.
func (m *NavigationMetrics) RecordWeatherCache(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.weatherCache.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
