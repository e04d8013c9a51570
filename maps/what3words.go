package maps

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rightfit/rightfit-navigation/config"
	"github.com/rightfit/rightfit-navigation/geo"
	"github.com/rightfit/rightfit-navigation/logging"
	"github.com/rightfit/rightfit-navigation/resilience"
)

const what3wordsCacheTTL = 30 * 24 * time.Hour

// ErrProviderDisabled is returned by optional providers with no API key.
var ErrProviderDisabled = errors.New("provider is not configured")

// What3WordsClient converts coordinates to three-word addresses.
type What3WordsClient struct {
	baseClient
	apiKey string
	cache  Cache
}

// NewWhat3WordsClient creates a what3words client. cache and breaker may be nil.
func NewWhat3WordsClient(cfg config.NavigationConfig, logger *logging.Logger, tracer *Tracer, cache Cache, breaker *resilience.CircuitBreaker) *What3WordsClient {
	c := &What3WordsClient{
		baseClient: newBaseClient(ProviderWhat3Words, cfg.What3WordsBaseURL, cfg.What3WordsTimeout, logger, tracer),
		apiKey:     cfg.What3WordsAPIKey,
		cache:      cache,
	}
	c.breaker = breaker
	return c
}

// Enabled reports whether an API key is configured.
func (c *What3WordsClient) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// ConvertTo3WA returns the three-word address for p, e.g. "filled.count.soap".
func (c *What3WordsClient) ConvertTo3WA(ctx context.Context, p geo.Point) (string, error) {
	if !c.Enabled() {
		return "", ErrProviderDisabled
	}

	cacheKey := fmt.Sprintf("w3w:%.6f,%.6f", p.Lat, p.Lng)
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey); err == nil && cached != nil {
			c.logger.Debug("what3words cache hit", "lat", p.Lat, "lng", p.Lng)
			return string(cached), nil
		}
	}

	params := url.Values{}
	params.Set("coordinates", fmt.Sprintf("%f,%f", p.Lat, p.Lng))
	params.Set("key", c.apiKey)

	var apiResp struct {
		Words string `json:"words"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	reqURL := fmt.Sprintf("%s/v3/convert-to-3wa?%s", c.baseURL, params.Encode())
	if err := c.getJSON(ctx, "convert_to_3wa", reqURL, nil, &apiResp); err != nil {
		return "", err
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("what3words error %s: %s", apiResp.Error.Code, apiResp.Error.Message)
	}
	if apiResp.Words == "" {
		return "", errors.New("what3words returned no words")
	}

	if c.cache != nil {
		_ = c.cache.Set(ctx, cacheKey, []byte(apiResp.Words), what3wordsCacheTTL)
	}

	return apiResp.Words, nil
}
