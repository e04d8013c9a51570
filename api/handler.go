// Package api exposes the navigation components over HTTP: property
// geocoding, reverse geocoding, plus-code decoding, distance, a worker's
// locations, per-property navigation data and weather advice.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rightfit/rightfit-navigation/auth"
	apperrors "github.com/rightfit/rightfit-navigation/errors"
	"github.com/rightfit/rightfit-navigation/geo"
	"github.com/rightfit/rightfit-navigation/geocode"
	apphttp "github.com/rightfit/rightfit-navigation/http"
	"github.com/rightfit/rightfit-navigation/logging"
	"github.com/rightfit/rightfit-navigation/navigation"
	"github.com/rightfit/rightfit-navigation/property"
	"github.com/rightfit/rightfit-navigation/validation"
	"github.com/rightfit/rightfit-navigation/weather"
)

// Geocoder resolves property locations and reverse-geocodes coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, tenantID, propertyID, address string, forceRefresh bool) (*property.Location, error)
	Reverse(ctx context.Context, p geo.Point) (*geocode.ReverseAddress, error)
}

// Navigator builds worker location lists and navigation views.
type Navigator interface {
	MyLocations(ctx context.Context, tenantID, workerID string, user *geo.Point) ([]navigation.LocationView, error)
	NavigationData(ctx context.Context, tenantID, propertyID string, user geo.Point, opts navigation.Options) (*navigation.Data, error)
}

// WeatherSource returns current conditions.
type WeatherSource interface {
	Current(ctx context.Context, p geo.Point) (*weather.Snapshot, error)
}

// Handler serves the navigation endpoints.
type Handler struct {
	geocoder  Geocoder
	navigator Navigator
	weather   WeatherSource
	audit     *logging.AuditLogger
}

// NewHandler creates a Handler. weather may be nil when no weather provider
// is configured; the weather endpoint then answers WEATHER_UNAVAILABLE.
func NewHandler(geocoder Geocoder, navigator Navigator, weather WeatherSource, audit *logging.AuditLogger) *Handler {
	return &Handler{
		geocoder:  geocoder,
		navigator: navigator,
		weather:   weather,
		audit:     audit,
	}
}

// Routes registers the endpoints on r. Every route expects authenticated
// claims in the request context.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/properties/{propertyID}/geocode", h.GeocodeProperty)
	r.Get("/properties/{propertyID}/navigation", h.Navigation)
	r.Get("/geocode/reverse", h.ReverseGeocode)
	r.Get("/plus-codes/{code}", h.DecodePlusCode)
	r.Post("/distance", h.Distance)
	r.Get("/workers/{workerID}/locations", h.MyLocations)
	r.Get("/weather", h.Weather)
}

// pathID reads and validates a tenant, property or worker ID from the path.
func pathID(r *http.Request, name string) (string, error) {
	id := chi.URLParam(r, name)
	if err := validation.ValidateVar(id, "resource_id"); err != nil {
		return "", apperrors.ValidationWithDetails("invalid path parameter", map[string]string{
			name: "must be 1-64 letters, digits, '-' or '_'",
		})
	}
	return id, nil
}

// queryFlag reads an optional boolean query parameter.
func queryFlag(r *http.Request, name string, fallback bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.ValidationWithDetails("invalid query parameter", map[string]string{
			name: "must be true or false",
		})
	}
	return v, nil
}

// tenant returns the caller's tenant. The auth middleware guarantees one.
func tenant(r *http.Request) string {
	return auth.TenantID(r.Context())
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apphttp.Error(w, r, err)
}
