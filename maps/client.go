// Package maps provides server-side adapters for the navigation providers:
// Nominatim (geocoding), what3words, OSRM (routing), TomTom (traffic) and
// WeatherAPI.com. Adapters return provider data and transport errors; the
// domain packages decide what those errors mean to callers.
package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"syscall"
	"time"

	"github.com/rightfit/rightfit-navigation/logging"
	"github.com/rightfit/rightfit-navigation/resilience"
)

const maxErrorBody = 1024

// Provider names used in spans, metrics and limiter keys.
const (
	ProviderNominatim  = "nominatim"
	ProviderWhat3Words = "what3words"
	ProviderOSRM       = "osrm"
	ProviderTomTom     = "tomtom"
	ProviderWeatherAPI = "weatherapi"
)

// Cache stores provider responses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RateLimiter spaces calls to a quota-constrained provider.
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
	Wait(ctx context.Context, key string) error
}

// StatusError is returned when a provider answers with a non-200 status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error: %d - %s", e.Provider, e.StatusCode, e.Body)
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not a
// StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsConnectionRefused reports whether err is a refused TCP connection.
func IsConnectionRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

// IsProviderFailure reports whether err says something about the provider's
// health. Client errors other than 429 and caller cancellation do not.
func IsProviderFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if code := StatusCode(err); code != 0 {
		return code == http.StatusTooManyRequests || code >= 500
	}
	return true
}

// baseClient holds what every provider adapter shares.
type baseClient struct {
	provider   string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	tracer     *Tracer
	breaker    *resilience.CircuitBreaker
}

func newBaseClient(provider, baseURL string, timeout time.Duration, logger *logging.Logger, tracer *Tracer) baseClient {
	return baseClient{
		provider: provider,
		baseURL:  baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logging.OrDiscard(logger).WithComponent(provider),
		tracer: tracer,
	}
}

// getJSON issues a GET and decodes a 200 response into out. Provider calls
// are never retried here.
func (c *baseClient) getJSON(ctx context.Context, operation, reqURL string, header http.Header, out any) (err error) {
	ctx, span := c.startSpan(ctx, operation)
	defer func() { span.Finish(err) }()

	call := func(ctx context.Context) error {
		return c.fetch(ctx, reqURL, header, out)
	}
	if c.breaker != nil {
		return c.breaker.Execute(ctx, call)
	}
	return call(ctx)
}

func (c *baseClient) fetch(ctx context.Context, reqURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.provider, err)
	}
	return nil
}

// doRequest executes req and turns any non-200 status into a StatusError.
func (c *baseClient) doRequest(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.provider, err)
	}

	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()

	return nil, &StatusError{
		Provider:   c.provider,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}

func (c *baseClient) startSpan(ctx context.Context, operation string) (context.Context, *Span) {
	if c.tracer != nil {
		return c.tracer.StartSpan(ctx, c.provider, operation)
	}
	return ctx, &Span{}
}

// NewProviderBreaker returns a circuit breaker that only counts provider-side
// failures.
func NewProviderBreaker(provider string, logger *logging.Logger) *resilience.CircuitBreaker {
	cfg := resilience.DefaultCircuitBreakerConfig(provider)
	cfg.IsFailure = IsProviderFailure
	log := logging.OrDiscard(logger)
	cfg.OnStateChange = func(name string, from, to resilience.CircuitState) {
		log.Warn("circuit breaker state changed", "provider", name, "from", from.String(), "to", to.String())
	}
	return resilience.NewCircuitBreaker(cfg)
}
