// Package config loads service configuration from the environment, a local
// .env file in development, and Azure Key Vault elsewhere.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds configuration for the navigation service.
type Config struct {
	// Service identification
	ServiceName string
	Environment string
	Version     string

	// HTTP server
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Inbound API rate limit per tenant or client IP
	RequestsPerSecond float64
	RequestBurst      int
	AllowedOrigins    []string
	RequestTimeout    time.Duration

	// Logging and telemetry
	LogLevel        string
	OTLPEndpoint    string
	TraceSampleRate float64

	// Storage
	DatabaseURL string
	RedisURL    string

	// Azure
	KeyVaultName string

	// JWT
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	Navigation NavigationConfig
}

// NavigationConfig is the provider configuration handed to each navigation
// component at construction. An empty API key disables the provider.
type NavigationConfig struct {
	WeatherAPIKey    string
	TomTomAPIKey     string
	What3WordsAPIKey string

	OSRMBaseURL        string
	NominatimBaseURL   string
	NominatimUserAgent string
	WeatherBaseURL     string
	TomTomBaseURL      string
	What3WordsBaseURL  string

	GeocodeRatePerSecond float64
	GeocodeCacheTTL      time.Duration
	WeatherCacheTTL      time.Duration
	WeatherCacheSize     int

	GeocodeTimeout    time.Duration
	RoutingTimeout    time.Duration
	WeatherTimeout    time.Duration
	What3WordsTimeout time.Duration
	TrafficTimeout    time.Duration
}

// DefaultNavigationConfig returns the defaults used when no environment
// override is present.
func DefaultNavigationConfig() NavigationConfig {
	return NavigationConfig{
		OSRMBaseURL:          "https://router.project-osrm.org",
		NominatimBaseURL:     "https://nominatim.openstreetmap.org",
		NominatimUserAgent:   "rightfit-navigation/1.0",
		WeatherBaseURL:       "https://api.weatherapi.com",
		TomTomBaseURL:        "https://api.tomtom.com",
		What3WordsBaseURL:    "https://api.what3words.com",
		GeocodeRatePerSecond: 1,
		GeocodeCacheTTL:      30 * 24 * time.Hour,
		WeatherCacheTTL:      time.Hour,
		WeatherCacheSize:     1024,
		GeocodeTimeout:       10 * time.Second,
		RoutingTimeout:       15 * time.Second,
		WeatherTimeout:       10 * time.Second,
		What3WordsTimeout:    5 * time.Second,
		TrafficTimeout:       10 * time.Second,
	}
}

// WeatherEnabled reports whether weather features are configured.
func (n NavigationConfig) WeatherEnabled() bool { return n.WeatherAPIKey != "" }

// TrafficEnabled reports whether traffic features are configured.
func (n NavigationConfig) TrafficEnabled() bool { return n.TomTomAPIKey != "" }

// What3WordsEnabled reports whether what3words lookups are configured.
func (n NavigationConfig) What3WordsEnabled() bool { return n.What3WordsAPIKey != "" }

// Load loads configuration from environment variables.
// Outside development, secrets are loaded from Azure Key Vault when
// KEY_VAULT_NAME is set.
func Load(serviceName string) (*Config, error) {
	if getEnv("ENVIRONMENT", "development") != "production" {
		// A missing .env file is the normal case outside local development.
		_ = godotenv.Load()
	}

	cfg := &Config{
		ServiceName:       serviceName,
		Environment:       getEnv("ENVIRONMENT", "development"),
		Version:           getEnv("VERSION", "0.0.1"),
		Port:              getEnvInt("PORT", 8080),
		ReadTimeout:       getEnvDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:      getEnvDuration("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		RequestsPerSecond: getEnvFloat("API_RATE_PER_SECOND", 20),
		RequestBurst:      getEnvInt("API_RATE_BURST", 40),
		AllowedOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		OTLPEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TraceSampleRate:   getEnvFloat("OTEL_TRACES_SAMPLE_RATE", 0.1),
		KeyVaultName:      getEnv("KEY_VAULT_NAME", ""),
		JWTIssuer:         getEnv("JWT_ISSUER", "rightfit"),
		JWTAudience:       getEnv("JWT_AUDIENCE", "rightfit-api"),
		Navigation:        loadNavigation(),
	}

	if cfg.KeyVaultName != "" && !cfg.IsDevelopment() {
		if err := cfg.loadFromKeyVault(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to load secrets from Key Vault: %w", err)
		}
	} else {
		cfg.loadFromEnv()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad loads configuration and panics on error.
func MustLoad(serviceName string) *Config {
	cfg, err := Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func loadNavigation() NavigationConfig {
	d := DefaultNavigationConfig()
	return NavigationConfig{
		WeatherAPIKey:        getEnv("WEATHER_API_KEY", ""),
		TomTomAPIKey:         getEnv("TOMTOM_API_KEY", ""),
		What3WordsAPIKey:     getEnv("WHAT3WORDS_API_KEY", ""),
		OSRMBaseURL:          strings.TrimRight(getEnv("OSRM_BASE_URL", d.OSRMBaseURL), "/"),
		NominatimBaseURL:     strings.TrimRight(getEnv("NOMINATIM_BASE_URL", d.NominatimBaseURL), "/"),
		NominatimUserAgent:   getEnv("NOMINATIM_USER_AGENT", d.NominatimUserAgent),
		WeatherBaseURL:       strings.TrimRight(getEnv("WEATHER_BASE_URL", d.WeatherBaseURL), "/"),
		TomTomBaseURL:        strings.TrimRight(getEnv("TOMTOM_BASE_URL", d.TomTomBaseURL), "/"),
		What3WordsBaseURL:    strings.TrimRight(getEnv("WHAT3WORDS_BASE_URL", d.What3WordsBaseURL), "/"),
		GeocodeRatePerSecond: getEnvFloat("GEOCODE_RATE_PER_SECOND", d.GeocodeRatePerSecond),
		GeocodeCacheTTL:      time.Duration(getEnvInt("GEOCODE_CACHE_TTL_DAYS", 30)) * 24 * time.Hour,
		WeatherCacheTTL:      getEnvDuration("WEATHER_CACHE_TTL", d.WeatherCacheTTL),
		WeatherCacheSize:     getEnvInt("WEATHER_CACHE_SIZE", d.WeatherCacheSize),
		GeocodeTimeout:       getEnvDuration("GEOCODE_TIMEOUT", d.GeocodeTimeout),
		RoutingTimeout:       getEnvDuration("ROUTING_TIMEOUT", d.RoutingTimeout),
		WeatherTimeout:       getEnvDuration("WEATHER_TIMEOUT", d.WeatherTimeout),
		What3WordsTimeout:    getEnvDuration("WHAT3WORDS_TIMEOUT", d.What3WordsTimeout),
		TrafficTimeout:       getEnvDuration("TRAFFIC_TIMEOUT", d.TrafficTimeout),
	}
}

func (c *Config) loadFromEnv() {
	c.DatabaseURL = getEnv("DATABASE_URL", "")
	c.RedisURL = getEnv("REDIS_URL", "")

	// JWT_SECRET is required outside development.
	if c.IsDevelopment() {
		c.JWTSecret = getEnv("JWT_SECRET", "development-only-secret-do-not-use-in-prod")
	} else {
		c.JWTSecret = requireEnv("JWT_SECRET")
	}
}

func (c *Config) loadFromKeyVault(ctx context.Context) error {
	kv, err := NewKeyVaultClient(c.KeyVaultName)
	if err != nil {
		return err
	}

	secrets := map[string]*string{
		"database-url":       &c.DatabaseURL,
		"redis-url":          &c.RedisURL,
		"jwt-secret":         &c.JWTSecret,
		"weather-api-key":    &c.Navigation.WeatherAPIKey,
		"tomtom-api-key":     &c.Navigation.TomTomAPIKey,
		"what3words-api-key": &c.Navigation.What3WordsAPIKey,
	}

	for name, ptr := range secrets {
		value, err := kv.GetSecret(ctx, name)
		if err != nil {
			if IsSecretNotFound(err) {
				continue
			}
			return err
		}
		*ptr = value
	}

	return nil
}

// Validate checks values that would otherwise fail at first use.
func (c *Config) Validate() error {
	if c.Navigation.GeocodeRatePerSecond <= 0 {
		return fmt.Errorf("GEOCODE_RATE_PER_SECOND must be positive, got %v", c.Navigation.GeocodeRatePerSecond)
	}
	if c.Navigation.WeatherCacheSize <= 0 {
		return fmt.Errorf("WEATHER_CACHE_SIZE must be positive, got %d", c.Navigation.WeatherCacheSize)
	}
	if c.Navigation.GeocodeCacheTTL <= 0 {
		return fmt.Errorf("GEOCODE_CACHE_TTL_DAYS must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// requireEnv gets a required environment variable and panics if not set.
func requireEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnv gets an environment variable with a default value.
func GetEnv(key, defaultValue string) string {
	return getEnv(key, defaultValue)
}

// GetEnvInt gets an environment variable as an integer with a default value.
func GetEnvInt(key string, defaultValue int) int {
	return getEnvInt(key, defaultValue)
}

// GetEnvBool gets an environment variable as a boolean with a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	return getEnvBool(key, defaultValue)
}

// GetEnvDuration gets an environment variable as a duration with a default value.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return getEnvDuration(key, defaultValue)
}

// GetEnvFloat gets an environment variable as a float with a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	return getEnvFloat(key, defaultValue)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
