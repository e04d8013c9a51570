// Package bootstrap wires the navigation service together: configuration,
// storage, telemetry, the external providers and the HTTP router.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/rightfit/rightfit-navigation/api"
	"github.com/rightfit/rightfit-navigation/auth"
	"github.com/rightfit/rightfit-navigation/config"
	"github.com/rightfit/rightfit-navigation/database"
	"github.com/rightfit/rightfit-navigation/geocode"
	"github.com/rightfit/rightfit-navigation/health"
	apphttp "github.com/rightfit/rightfit-navigation/http"
	"github.com/rightfit/rightfit-navigation/logging"
	"github.com/rightfit/rightfit-navigation/maps"
	"github.com/rightfit/rightfit-navigation/navigation"
	"github.com/rightfit/rightfit-navigation/routing"
	"github.com/rightfit/rightfit-navigation/telemetry"
	"github.com/rightfit/rightfit-navigation/traffic"
	"github.com/rightfit/rightfit-navigation/weather"
)

const healthCheckTimeout = 3 * time.Second

// Service holds every initialized component of the navigation service.
type Service struct {
	Config      *config.Config
	Logger      *logging.Logger
	Connections *database.Connections
	Store       *database.PropertyStore

	Geocoder   *geocode.Service
	Navigator  *navigation.Aggregator
	Weather    *weather.Advisor
	Health     *health.Checker
	JWT        *auth.JWTManager
	APILimiter *apphttp.RateLimiter
	Router     http.Handler

	tracing *telemetry.TracingProvider
	metrics *telemetry.MetricsProvider
}

// Initialize loads configuration (Key Vault outside development), connects
// to Postgres and Redis, and builds the navigation components.
func Initialize(ctx context.Context, serviceName string) (*Service, error) {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel).WithService(serviceName)
	logger.Info("starting service",
		"environment", cfg.Environment,
		"version", cfg.Version,
		"key_vault", valueOrNone(cfg.KeyVaultName),
		"traffic_enabled", cfg.Navigation.TrafficEnabled(),
		"weather_enabled", cfg.Navigation.WeatherEnabled(),
		"what3words_enabled", cfg.Navigation.What3WordsEnabled(),
	)

	conns, err := database.NewConnectionsFromConfig(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connections: %w", err)
	}

	svc := &Service{
		Config:      cfg,
		Logger:      logger,
		Connections: conns,
		Store:       database.NewPropertyStore(conns.Postgres.DB()),
	}
	if err := svc.build(ctx); err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

// MustInitialize initializes the service and exits on error.
func MustInitialize(ctx context.Context, serviceName string) *Service {
	svc, err := Initialize(ctx, serviceName)
	if err != nil {
		logging.NewLogger("info").Fatal("failed to initialize service", "error", err.Error())
	}
	return svc
}

func (s *Service) build(ctx context.Context) error {
	cfg, logger := s.Config, s.Logger

	tracer, err := s.initTelemetry(ctx)
	if err != nil {
		return err
	}

	navMetrics, err := telemetry.NewNavigationMetrics(s.metrics.Meter())
	if err != nil {
		return fmt.Errorf("failed to create navigation metrics: %w", err)
	}
	httpMetrics, err := telemetry.NewHTTPMetrics(s.metrics.Meter())
	if err != nil {
		return fmt.Errorf("failed to create http metrics: %w", err)
	}

	providerTracer := maps.NewTracer(tracer).WithObserver(navMetrics)
	audit := logging.NewAuditLogger(logging.AuditLoggerConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Logger:      logger,
	})

	// Nominatim's rate limit is shared across replicas when Redis is available.
	var limiter maps.RateLimiter
	var cache maps.Cache
	if s.Connections.Redis != nil {
		limiter = maps.NewRedisIntervalLimiter(s.Connections.Redis.Client(), "ratelimit:", cfg.Navigation.GeocodeRatePerSecond)
		cache = maps.NewRedisCache(s.Connections.Redis.Client(), "navigation:")
	} else {
		limiter = maps.NewIntervalLimiter(cfg.Navigation.GeocodeRatePerSecond)
		cache = maps.NewInMemoryCache()
	}

	nominatim := maps.NewNominatimClient(cfg.Navigation, logger, providerTracer, limiter)
	osrm := maps.NewOSRMClient(cfg.Navigation, logger, providerTracer)

	geocodeOpts := []geocode.Option{
		geocode.WithAudit(audit),
		geocode.WithRecorder(navMetrics),
	}
	if cfg.Navigation.What3WordsEnabled() {
		words := maps.NewWhat3WordsClient(cfg.Navigation, logger, providerTracer, cache,
			maps.NewProviderBreaker(maps.ProviderWhat3Words, logger))
		geocodeOpts = append(geocodeOpts, geocode.WithWords(words))
	}
	s.Geocoder = geocode.NewService(cfg.Navigation, s.Store, nominatim, logger, geocodeOpts...)

	var trafficProvider traffic.Provider
	if cfg.Navigation.TrafficEnabled() {
		trafficProvider = maps.NewTomTomClient(cfg.Navigation, logger, providerTracer,
			maps.NewProviderBreaker(maps.ProviderTomTom, logger))
	}

	navOpts := []navigation.Option{
		navigation.WithTraffic(traffic.NewAggregator(trafficProvider, logger)),
		navigation.WithAudit(audit),
		navigation.WithGeocodeTTL(cfg.Navigation.GeocodeCacheTTL),
	}
	var weatherSource api.WeatherSource
	if cfg.Navigation.WeatherEnabled() {
		s.Weather = weather.NewAdvisor(cfg.Navigation, maps.NewWeatherAPIClient(cfg.Navigation, logger, providerTracer), logger).
			WithRecorder(navMetrics)
		navOpts = append(navOpts, navigation.WithWeather(s.Weather))
		weatherSource = s.Weather
	}
	s.Navigator = navigation.NewAggregator(s.Store, routing.NewClient(osrm, logger), logger, navOpts...)

	s.Health = health.NewChecker(cfg.Version)
	s.Health.AddCheck("postgres", health.PingCheck(s.Connections.Postgres, healthCheckTimeout), true)
	if s.Connections.Redis != nil {
		s.Health.AddCheck("redis", health.PingCheck(s.Connections.Redis, healthCheckTimeout), true)
	}
	s.Health.AddCheck("osrm", health.PingCheck(osrm, healthCheckTimeout), false)
	s.Health.AddCheck("nominatim", health.HTTPCheck(nil, cfg.Navigation.NominatimBaseURL+"/status", healthCheckTimeout), false)

	s.JWT = auth.NewJWTManager(auth.JWTConfig{
		Secret:       cfg.JWTSecret,
		Issuer:       cfg.JWTIssuer,
		Audience:     cfg.JWTAudience,
		AccessExpiry: auth.DefaultJWTConfig().AccessExpiry,
	})

	limiterCfg := apphttp.DefaultRateLimiterConfig()
	limiterCfg.RequestsPerSecond = cfg.RequestsPerSecond
	limiterCfg.BurstSize = cfg.RequestBurst
	s.APILimiter = apphttp.NewRateLimiter(limiterCfg)

	s.Router = api.NewRouter(api.RouterConfig{
		JWT:            s.JWT,
		RateLimiter:    s.APILimiter,
		Health:         s.Health,
		Tracer:         tracer,
		Metrics:        httpMetrics,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	}, api.NewHandler(s.Geocoder, s.Navigator, weatherSource, audit))

	return nil
}

// initTelemetry exports traces and metrics when an OTLP endpoint is
// configured. Metrics are always collected in-process so provider call
// counters work without an exporter.
func (s *Service) initTelemetry(ctx context.Context) (trace.Tracer, error) {
	cfg := s.Config

	metrics, err := telemetry.NewMetricsProvider(ctx, telemetry.MetricsConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.OTLPEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	s.metrics = metrics

	if cfg.OTLPEndpoint == "" {
		return noop.NewTracerProvider().Tracer(cfg.ServiceName), nil
	}

	tracing, err := telemetry.NewTracingProvider(ctx, telemetry.TracingConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	s.tracing = tracing
	s.Logger.Info("telemetry exporting", "endpoint", cfg.OTLPEndpoint)
	return tracing.Tracer(), nil
}

// Shutdown flushes telemetry and closes connections.
func (s *Service) Shutdown(ctx context.Context) {
	if s.tracing != nil {
		if err := s.tracing.Shutdown(ctx); err != nil {
			s.Logger.Error("failed to flush traces", "error", err.Error())
		}
	}
	if s.metrics != nil {
		if err := s.metrics.Shutdown(ctx); err != nil {
			s.Logger.Error("failed to flush metrics", "error", err.Error())
		}
	}
	s.Close()
}

// Close releases connections and background workers.
func (s *Service) Close() {
	if s.APILimiter != nil {
		s.APILimiter.Close()
	}
	if s.Connections != nil {
		s.Connections.Close()
	}
}

func valueOrNone(s string) string {
	if s == "" {
		return "(none - using env vars)"
	}
	return s
}
