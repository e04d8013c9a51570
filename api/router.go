package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/rightfit/rightfit-navigation/auth"
	"github.com/rightfit/rightfit-navigation/errors"
	"github.com/rightfit/rightfit-navigation/health"
	apphttp "github.com/rightfit/rightfit-navigation/http"
	"github.com/rightfit/rightfit-navigation/logging"
	"github.com/rightfit/rightfit-navigation/telemetry"
)

// RouterConfig holds what the router needs besides the Handler. Tracer,
// Metrics, RateLimiter and Health are optional.
type RouterConfig struct {
	JWT            *auth.JWTManager
	RateLimiter    *apphttp.RateLimiter
	Health         *health.Checker
	Tracer         trace.Tracer
	Metrics        *telemetry.HTTPMetrics
	AllowedOrigins []string
	RequestTimeout time.Duration
	Logger         *logging.Logger
}

// NewRouter builds the service router: health probes at the root and the
// authenticated, rate-limited API under /v1.
func NewRouter(cfg RouterConfig, h *Handler) http.Handler {
	logger := logging.OrDiscard(cfg.Logger)

	r := chi.NewRouter()
	r.Use(apphttp.RequestID)
	r.Use(apphttp.RealIP)
	if cfg.Tracer != nil {
		r.Use(telemetry.TracingMiddleware(cfg.Tracer))
	}
	if cfg.Metrics != nil {
		r.Use(telemetry.MetricsMiddleware(cfg.Metrics))
	}
	r.Use(apphttp.Logger(logger))
	r.Use(apphttp.Recoverer(logger))
	r.Use(apphttp.SecurityHeaders)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(apphttp.CORS(cfg.AllowedOrigins))
	}

	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.LivenessHandler())
		r.Get("/health/ready", cfg.Health.ReadinessHandler())
	}

	r.Route("/v1", func(v1 chi.Router) {
		if cfg.RequestTimeout > 0 {
			v1.Use(apphttp.Timeout(cfg.RequestTimeout))
		}
		v1.Use(auth.Middleware(cfg.JWT))
		if cfg.RateLimiter != nil {
			v1.Use(cfg.RateLimiter.Middleware)
		}
		h.Routes(v1)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apphttp.Error(w, r, errors.NotFound("route"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteErrorWithStatus(w, http.StatusMethodNotAllowed, errors.CodeBadRequest, "method not allowed")
	})

	return r
}
