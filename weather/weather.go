// Package weather serves current conditions from a bounded, expiring cache
// and derives worker travel-safety advice from them.
package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rightfit/rightfit-navigation/config"
	apperrors "github.com/rightfit/rightfit-navigation/errors"
	"github.com/rightfit/rightfit-navigation/geo"
	"github.com/rightfit/rightfit-navigation/logging"
	"github.com/rightfit/rightfit-navigation/maps"
)

// Provider fetches current conditions.
type Provider interface {
	Current(ctx context.Context, p geo.Point) (*maps.CurrentConditions, error)
}

// CacheRecorder is told about every cache lookup.
type CacheRecorder interface {
	RecordWeatherCache(ctx context.Context, hit bool)
}

// Snapshot is the current weather at a coordinate.
type Snapshot struct {
	Location        string    `json:"location"`
	Region          string    `json:"region,omitempty"`
	Country         string    `json:"country,omitempty"`
	TemperatureC    float64   `json:"temperature_c"`
	FeelsLikeC      float64   `json:"feels_like_c"`
	Humidity        int       `json:"humidity"`
	PrecipitationMM float64   `json:"precipitation_mm"`
	WindKph         float64   `json:"wind_kph"`
	GustKph         float64   `json:"gust_kph"`
	WindDirection   string    `json:"wind_direction,omitempty"`
	VisibilityKm    float64   `json:"visibility_km"`
	UV              float64   `json:"uv"`
	Condition       string    `json:"condition"`
	ConditionCode   int       `json:"condition_code"`
	IsDay           bool      `json:"is_day"`
	LastUpdated     string    `json:"last_updated,omitempty"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// Advisor fetches weather through a cache and turns it into advice.
type Advisor struct {
	provider Provider
	cache    *expirable.LRU[string, Snapshot]
	logger   *logging.Logger
	recorder CacheRecorder
}

// NewAdvisor creates an advisor caching up to cfg.WeatherCacheSize
// coordinates for cfg.WeatherCacheTTL. provider may be nil when weather is
// not configured.
func NewAdvisor(cfg config.NavigationConfig, provider Provider, logger *logging.Logger) *Advisor {
	defaults := config.DefaultNavigationConfig()
	size, ttl := cfg.WeatherCacheSize, cfg.WeatherCacheTTL
	if size <= 0 {
		size = defaults.WeatherCacheSize
	}
	if ttl <= 0 {
		ttl = defaults.WeatherCacheTTL
	}

	return &Advisor{
		provider: provider,
		cache:    expirable.NewLRU[string, Snapshot](size, nil, ttl),
		logger:   logging.OrDiscard(logger).WithComponent("weather"),
	}
}

// WithRecorder reports cache hits and misses to r.
func (a *Advisor) WithRecorder(r CacheRecorder) *Advisor {
	a.recorder = r
	return a
}

// Current returns the weather at p, from cache when a reading for the same
// coordinate (to four decimals) is still fresh.
func (a *Advisor) Current(ctx context.Context, p geo.Point) (*Snapshot, error) {
	if !p.IsValid() {
		return nil, apperrors.Validation("coordinates out of range")
	}

	key := cacheKey(p)
	if cached, ok := a.cache.Get(key); ok {
		a.record(ctx, true)
		return &cached, nil
	}
	a.record(ctx, false)

	if a.provider == nil {
		return nil, apperrors.WeatherUnavailable("")
	}

	cur, err := a.provider.Current(ctx, p)
	if err != nil {
		return nil, a.translate(err)
	}

	snap := fromConditions(cur)
	a.cache.Add(key, snap)
	return &snap, nil
}

// Clear drops every cached reading.
func (a *Advisor) Clear() {
	a.cache.Purge()
}

// Len returns the number of cached readings.
func (a *Advisor) Len() int {
	return a.cache.Len()
}

func (a *Advisor) record(ctx context.Context, hit bool) {
	if a.recorder != nil {
		a.recorder.RecordWeatherCache(ctx, hit)
	}
}

func (a *Advisor) translate(err error) error {
	switch {
	case errors.Is(err, maps.ErrProviderDisabled):
		return apperrors.WeatherUnavailable("")
	case maps.StatusCode(err) == http.StatusForbidden:
		return apperrors.InvalidCredential(maps.ProviderWeatherAPI)
	case maps.StatusCode(err) == http.StatusTooManyRequests:
		return apperrors.RateLimited(maps.ProviderWeatherAPI)
	default:
		a.logger.Warn("weather fetch failed", "error", err.Error())
		return apperrors.Wrap(err, apperrors.CodeWeatherUnavailable, "weather data could not be fetched")
	}
}

func cacheKey(p geo.Point) string {
	return fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lng)
}

func fromConditions(c *maps.CurrentConditions) Snapshot {
	return Snapshot{
		Location:        c.LocationName,
		Region:          c.Region,
		Country:         c.Country,
		TemperatureC:    c.TempC,
		FeelsLikeC:      c.FeelsLikeC,
		Humidity:        c.Humidity,
		PrecipitationMM: c.PrecipMM,
		WindKph:         c.WindKPH,
		GustKph:         c.GustKPH,
		WindDirection:   c.WindDirection,
		VisibilityKm:    c.VisibilityKM,
		UV:              c.UV,
		Condition:       c.Condition,
		ConditionCode:   c.ConditionCode,
		IsDay:           c.IsDay,
		LastUpdated:     c.LastUpdated,
		FetchedAt:       time.Now().UTC(),
	}
}
