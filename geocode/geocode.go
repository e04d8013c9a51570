// Package geocode turns a property's free-text address into durable
// coordinates. A stored geocode younger than the cache TTL is served without
// a provider call; anything else goes through the shared Nominatim limiter.
package geocode

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rightfit/rightfit-navigation/config"
	apperrors "github.com/rightfit/rightfit-navigation/errors"
	"github.com/rightfit/rightfit-navigation/geo"
	"github.com/rightfit/rightfit-navigation/logging"
	"github.com/rightfit/rightfit-navigation/maps"
	"github.com/rightfit/rightfit-navigation/optional"
	"github.com/rightfit/rightfit-navigation/property"
)

// Store loads and updates property records. GetProperty returns a NOT_FOUND
// AppError when the property does not exist within the tenant.
type Store interface {
	GetProperty(ctx context.Context, tenantID, propertyID string) (*property.Property, error)
	SaveLocation(ctx context.Context, tenantID, propertyID string, loc property.Location) error
}

// Provider is the forward and reverse geocoding backend.
type Provider interface {
	Search(ctx context.Context, address string) ([]maps.GeocodeMatch, error)
	Reverse(ctx context.Context, p geo.Point) (*maps.ReverseResult, error)
}

// WordsProvider converts coordinates to a three-word address.
type WordsProvider interface {
	ConvertTo3WA(ctx context.Context, p geo.Point) (string, error)
}

// Recorder receives one event per resolved geocode.
type Recorder interface {
	RecordGeocode(ctx context.Context, source string)
}

// Service resolves and reverse-resolves property locations.
type Service struct {
	store    Store
	provider Provider
	words    WordsProvider
	ttl      time.Duration
	logger   *logging.Logger
	audit    *logging.AuditLogger
	recorder Recorder
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithWords enables best-effort what3words lookups.
func WithWords(w WordsProvider) Option {
	return func(s *Service) { s.words = w }
}

// WithAudit records every coordinate write.
func WithAudit(a *logging.AuditLogger) Option {
	return func(s *Service) { s.audit = a }
}

// WithRecorder reports resolutions by source.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a geocoding service.
func NewService(cfg config.NavigationConfig, store Store, provider Provider, logger *logging.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		provider: provider,
		ttl:      cfg.GeocodeCacheTTL,
		logger:   logging.OrDiscard(logger).WithComponent("geocode"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl <= 0 {
		s.ttl = config.DefaultNavigationConfig().GeocodeCacheTTL
	}
	return s
}

// Resolve returns the location of a property. A trusted stored geocode is
// returned with source CACHE unless forceRefresh is set; otherwise the
// address (or the stored address when empty) is geocoded, persisted and
// returned with source FRESH.
func (s *Service) Resolve(ctx context.Context, tenantID, propertyID, address string, forceRefresh bool) (*property.Location, error) {
	prop, err := s.store.GetProperty(ctx, tenantID, propertyID)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithTenantID(tenantID).With("property_id", propertyID)

	if !forceRefresh {
		if loc, ok := prop.StoredLocation(s.ttl, s.now()); ok {
			log.Debug("serving stored geocode", "geocoded_at", loc.ResolvedAt)
			s.record(ctx, property.SourceCache)
			return &loc, nil
		}
	}

	address = strings.TrimSpace(address)
	if address == "" {
		address = prop.FullAddress()
	}
	if address == "" {
		return nil, apperrors.Validation("property has no address to geocode")
	}

	loc, err := s.lookup(ctx, address)
	if err != nil {
		log.Warn("geocode failed", "error", err.Error())
		s.audit.LogGeocode(ctx, tenantID, propertyID, logging.AuditOutcomeFailure, map[string]string{
			"code": apperrors.Code(err),
		})
		return nil, err
	}

	if err := s.store.SaveLocation(ctx, tenantID, propertyID, *loc); err != nil {
		return nil, err
	}

	s.audit.LogGeocode(ctx, tenantID, propertyID, logging.AuditOutcomeSuccess, map[string]string{
		"location_type": string(loc.LocationType),
		"plus_code":     loc.PlusCode,
		"force_refresh": boolString(forceRefresh),
	})
	log.Info("property geocoded", "location_type", loc.LocationType, "plus_code", loc.PlusCode)
	s.record(ctx, property.SourceFresh)

	return loc, nil
}

// lookup geocodes address through the provider and enriches the match.
func (s *Service) lookup(ctx context.Context, address string) (*property.Location, error) {
	matches, err := s.provider.Search(ctx, address)
	if err != nil {
		return nil, translate(err)
	}
	if len(matches) == 0 {
		return nil, apperrors.AddressNotFound(address)
	}

	match := matches[0]
	p := match.Location

	loc := &property.Location{
		Latitude:     p.Lat,
		Longitude:    p.Lng,
		PlusCode:     geo.EncodePlusCode(p.Lat, p.Lng),
		LocationType: Classify(match),
		Source:       property.SourceFresh,
		ResolvedAt:   s.now().UTC(),
		H3Cell:       geo.CellForPoint(p, geo.H3ResolutionProperty),
	}
	loc.What3Words = s.threeWords(ctx, p)

	return loc, nil
}

// threeWords looks up the what3words address. Failure leaves it absent.
func (s *Service) threeWords(ctx context.Context, p geo.Point) optional.Value[string] {
	if s.words == nil {
		return optional.None[string]()
	}
	words, err := s.words.ConvertTo3WA(ctx, p)
	if err != nil {
		if !errors.Is(err, maps.ErrProviderDisabled) {
			s.logger.Warn("what3words lookup failed", "error", err.Error())
		}
		return optional.None[string]()
	}
	return optional.Some(words)
}

// ReverseAddress is the address found at a coordinate. Missing components
// are empty strings.
type ReverseAddress struct {
	Address  string `json:"address"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// Reverse resolves a coordinate to an address. Results are not cached.
func (s *Service) Reverse(ctx context.Context, p geo.Point) (*ReverseAddress, error) {
	if !p.IsValid() {
		return nil, apperrors.Validation("coordinates out of range")
	}

	res, err := s.provider.Reverse(ctx, p)
	if err != nil {
		return nil, translate(err)
	}

	return &ReverseAddress{
		Address:  res.DisplayName,
		City:     res.Address.Locality(),
		Postcode: res.Address.Postcode,
		Country:  res.Address.Country,
	}, nil
}

func (s *Service) record(ctx context.Context, source property.Source) {
	if s.recorder != nil {
		s.recorder.RecordGeocode(ctx, string(source))
	}
}

// translate maps provider errors onto the geocoding error codes.
func translate(err error) error {
	if maps.StatusCode(err) == http.StatusTooManyRequests {
		return apperrors.RateLimited(maps.ProviderNominatim).WithDetail("retry_after_seconds", "1")
	}
	return apperrors.Geocoding(err)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
