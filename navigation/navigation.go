// Package navigation is the entry point the API uses for worker-facing
// location data: the list of a worker's properties ranked by distance, and
// the per-property navigation view with optional route, traffic and weather.
package navigation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rightfit/rightfit-navigation/config"
	apperrors "github.com/rightfit/rightfit-navigation/errors"
	"github.com/rightfit/rightfit-navigation/geo"
	"github.com/rightfit/rightfit-navigation/logging"
	"github.com/rightfit/rightfit-navigation/optional"
	"github.com/rightfit/rightfit-navigation/property"
	"github.com/rightfit/rightfit-navigation/routing"
	"github.com/rightfit/rightfit-navigation/traffic"
	"github.com/rightfit/rightfit-navigation/weather"
)

// Store reads the tenant's properties, workers and jobs.
type Store interface {
	GetWorker(ctx context.Context, workerID string) (*property.Worker, error)
	GetProperty(ctx context.Context, tenantID, propertyID string) (*property.Property, error)
	ListWorkerProperties(ctx context.Context, tenantID, workerID string, now time.Time) ([]property.WorkerProperty, error)
}

// Router computes driving routes.
type Router interface {
	Route(ctx context.Context, origin, dest geo.Point) (*routing.Route, error)
}

// TrafficSource builds traffic snapshots.
type TrafficSource interface {
	ForRoute(ctx context.Context, points []geo.Point) *traffic.Snapshot
	ForPoint(ctx context.Context, p geo.Point) *traffic.Snapshot
}

// WeatherSource returns current weather.
type WeatherSource interface {
	Current(ctx context.Context, p geo.Point) (*weather.Snapshot, error)
}

// LocationView is one of a worker's properties.
type LocationView struct {
	PropertyID  string                             `json:"property_id"`
	Name        string                             `json:"name"`
	Address     string                             `json:"address"`
	Postcode    string                             `json:"postcode"`
	Latitude    *float64                           `json:"latitude"`
	Longitude   *float64                           `json:"longitude"`
	PlusCode    string                             `json:"plus_code,omitempty"`
	What3Words  string                             `json:"what3words,omitempty"`
	NextJobDate *time.Time                         `json:"next_job_date"`
	Distance    optional.Value[geo.DistanceResult] `json:"distance"`
	ETAMinutes  optional.Value[int]                `json:"eta_minutes"`
}

// Options selects the optional enrichments of NavigationData.
type Options struct {
	IncludeTraffic bool
	IncludeWeather bool
}

// WeatherReport pairs the current weather with travel advice.
type WeatherReport struct {
	Current        weather.Snapshot       `json:"current"`
	Recommendation weather.Recommendation `json:"recommendation"`
}

// Data is the navigation view of one geocoded property.
type Data struct {
	PropertyID  string                           `json:"property_id"`
	Name        string                           `json:"name"`
	Address     string                           `json:"address"`
	Destination geo.Point                        `json:"destination"`
	PlusCode    string                           `json:"plus_code"`
	What3Words  optional.Value[string]           `json:"what3words"`
	Distance    geo.DistanceResult               `json:"distance"`
	ETAMinutes  int                              `json:"eta_minutes"`
	Route       optional.Value[routing.Route]    `json:"route"`
	Traffic     optional.Value[traffic.Snapshot] `json:"traffic"`
	Weather     optional.Value[WeatherReport]    `json:"weather"`
}

// Aggregator composes the store with the routing, traffic and weather
// components.
type Aggregator struct {
	store   Store
	router  Router
	traffic TrafficSource
	weather WeatherSource
	logger  *logging.Logger
	audit   *logging.AuditLogger
	ttl     time.Duration
	now     func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTraffic enables traffic enrichment.
func WithTraffic(t TrafficSource) Option {
	return func(a *Aggregator) { a.traffic = t }
}

// WithWeather enables weather enrichment.
func WithWeather(w WeatherSource) Option {
	return func(a *Aggregator) { a.weather = w }
}

// WithAudit records cross-tenant access attempts.
func WithAudit(audit *logging.AuditLogger) Option {
	return func(a *Aggregator) { a.audit = audit }
}

// WithGeocodeTTL sets how long a stored geocode is trusted. Older
// coordinates are treated as missing.
func WithGeocodeTTL(ttl time.Duration) Option {
	return func(a *Aggregator) { a.ttl = ttl }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator creates an Aggregator. router may be nil, in which case
// navigation data never includes a route.
func NewAggregator(store Store, router Router, logger *logging.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:  store,
		router: router,
		logger: logging.OrDiscard(logger).WithComponent("navigation"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.ttl <= 0 {
		a.ttl = config.DefaultNavigationConfig().GeocodeCacheTTL
	}
	return a
}

// MyLocations lists the properties the worker has jobs at. When tenantID is
// set the worker must belong to it. With a user location each entry carries
// distance and ETA, and the list is ordered nearest first with properties
// lacking trusted coordinates last.
func (a *Aggregator) MyLocations(ctx context.Context, tenantID, workerID string, user *geo.Point) ([]LocationView, error) {
	if user != nil && !user.IsValid() {
		return nil, apperrors.Validation("coordinates out of range")
	}

	worker, err := a.store.GetWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if tenantID != "" && worker.TenantID != tenantID {
		a.audit.LogAccessDenied(ctx, tenantID, "", "worker", workerID)
		return nil, apperrors.NotFoundID("worker", workerID)
	}

	now := a.now()
	props, err := a.store.ListWorkerProperties(ctx, worker.TenantID, worker.ID, now)
	if err != nil {
		return nil, err
	}

	views := make([]LocationView, 0, len(props))
	for _, wp := range props {
		views = append(views, newLocationView(wp, user, a.ttl, now))
	}

	if user != nil {
		SortByDistance(views)
	}
	return views, nil
}

// SortByDistance orders views nearest first. Views without a distance keep
// their relative order after every view that has one.
func SortByDistance(views []LocationView) {
	sort.SliceStable(views, func(i, j int) bool {
		di, iok := views[i].Distance.Get()
		dj, jok := views[j].Distance.Get()
		switch {
		case iok && jok:
			return di.Meters < dj.Meters
		default:
			return iok && !jok
		}
	})
}

// newLocationView builds the view of a worker property. Distance and ETA
// are attached only when the stored geocode is trusted at now.
func newLocationView(wp property.WorkerProperty, user *geo.Point, ttl time.Duration, now time.Time) LocationView {
	p := wp.Property
	v := LocationView{
		PropertyID:  p.ID,
		Name:        p.Name,
		Address:     p.Address,
		Postcode:    p.Postcode,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		PlusCode:    p.PlusCode,
		What3Words:  p.What3Words,
		NextJobDate: wp.NextJobDate,
	}

	if dest, ok := p.Point(); ok && v.PlusCode == "" {
		v.PlusCode = geo.EncodePlusCode(dest.Lat, dest.Lng)
	}
	if loc, ok := p.StoredLocation(ttl, now); ok && user != nil {
		d := geo.Distance(*user, geo.Point{Lat: loc.Latitude, Lng: loc.Longitude})
		v.Distance = optional.Some(d)
		v.ETAMinutes = optional.Some(geo.EstimateETAMinutes(float64(d.Meters) / geo.MetersPerKm))
	}
	return v
}

// NavigationData returns the navigation view of a property the tenant owns.
// The property must hold a geocode younger than the geocode TTL, otherwise
// NOT_GEOCODED is returned and nothing is looked up. The route, traffic and
// weather are best effort: failures are logged and leave the field absent.
func (a *Aggregator) NavigationData(ctx context.Context, tenantID, propertyID string, user geo.Point, opts Options) (*Data, error) {
	if !user.IsValid() {
		return nil, apperrors.Validation("coordinates out of range")
	}

	prop, err := a.store.GetProperty(ctx, tenantID, propertyID)
	if err != nil {
		return nil, err
	}

	loc, ok := prop.StoredLocation(a.ttl, a.now())
	if !ok {
		return nil, apperrors.NotGeocoded(propertyID)
	}
	dest := geo.Point{Lat: loc.Latitude, Lng: loc.Longitude}

	dist := geo.Distance(user, dest)
	data := &Data{
		PropertyID:  prop.ID,
		Name:        prop.Name,
		Address:     prop.FullAddress(),
		Destination: dest,
		PlusCode:    loc.PlusCode,
		What3Words:  optional.None[string](),
		Distance:    dist,
		ETAMinutes:  geo.EstimateETAMinutes(float64(dist.Meters) / geo.MetersPerKm),
	}
	if prop.What3Words != "" {
		data.What3Words = optional.Some(prop.What3Words)
	}

	log := a.logger.WithTenantID(tenantID).With("property_id", propertyID)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		route := a.route(ctx, log, user, dest)
		data.Route = route
		if opts.IncludeTraffic && a.traffic != nil {
			data.Traffic = optional.Some(*a.trafficFor(ctx, route, dest))
		}
	}()

	if opts.IncludeWeather && a.weather != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data.Weather = a.weatherAt(ctx, log, dest)
		}()
	}

	wg.Wait()
	return data, nil
}

func (a *Aggregator) route(ctx context.Context, log *logging.Logger, from, to geo.Point) optional.Value[routing.Route] {
	if a.router == nil {
		return optional.None[routing.Route]()
	}
	r, err := a.router.Route(ctx, from, to)
	if err != nil {
		log.Warn("route unavailable, returning distance only", "error", err.Error(), "code", apperrors.Code(err))
		return optional.None[routing.Route]()
	}
	return optional.Some(*r)
}

func (a *Aggregator) trafficFor(ctx context.Context, route optional.Value[routing.Route], dest geo.Point) *traffic.Snapshot {
	if r, ok := route.Get(); ok && len(r.Geometry) > 0 {
		return a.traffic.ForRoute(ctx, r.Geometry)
	}
	return a.traffic.ForPoint(ctx, dest)
}

func (a *Aggregator) weatherAt(ctx context.Context, log *logging.Logger, p geo.Point) optional.Value[WeatherReport] {
	snap, err := a.weather.Current(ctx, p)
	if err != nil {
		log.Warn("weather unavailable", "error", err.Error(), "code", apperrors.Code(err))
		return optional.None[WeatherReport]()
	}
	return optional.Some(WeatherReport{
		Current:        *snap,
		Recommendation: weather.Recommend(*snap),
	})
}
