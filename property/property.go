// Package property defines the records the navigation service reads from the
// property-services store and the geocoded location it writes back.
package property

import (
	"sort"
	"time"

	"github.com/rightfit/rightfit-navigation/geo"
	"github.com/rightfit/rightfit-navigation/optional"
)

// LocationType classifies how precise a geocode match is.
type LocationType string

const (
	LocationTypeAddress         LocationType = "ADDRESS"
	LocationTypeRural           LocationType = "RURAL"
	LocationTypeCoordinatesOnly LocationType = "COORDINATES_ONLY"
)

// Source tells the caller whether a location came from the stored record or
// a provider call made for this request.
type Source string

const (
	SourceCache Source = "CACHE"
	SourceFresh Source = "FRESH"
)

// Location is a resolved coordinate for a property.
type Location struct {
	Latitude     float64                `json:"latitude"`
	Longitude    float64                `json:"longitude"`
	PlusCode     string                 `json:"plus_code"`
	What3Words   optional.Value[string] `json:"what3words"`
	LocationType LocationType           `json:"location_type"`
	Source       Source                 `json:"source"`
	ResolvedAt   time.Time              `json:"resolved_at"`
	H3Cell       string                 `json:"h3_cell,omitempty"`
}

// Point returns the location as a geo.Point.
func (l Location) Point() geo.Point {
	return geo.Point{Lat: l.Latitude, Lng: l.Longitude}
}

// Property is a tenant's service address together with its last geocode.
// Coordinates are nil until the property has been geocoded.
type Property struct {
	ID           string
	TenantID     string
	Name         string
	Address      string
	Postcode     string
	Latitude     *float64
	Longitude    *float64
	PlusCode     string
	What3Words   string
	LocationType LocationType
	H3Cell       string
	GeocodedAt   *time.Time
}

// HasCoordinates reports whether both coordinates are stored.
func (p *Property) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Point returns the stored coordinates. ok is false when either is missing.
func (p *Property) Point() (geo.Point, bool) {
	if !p.HasCoordinates() {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *p.Latitude, Lng: *p.Longitude}, true
}

// FullAddress joins the address and postcode for a geocoding query.
func (p *Property) FullAddress() string {
	if p.Postcode == "" {
		return p.Address
	}
	return p.Address + ", " + p.Postcode
}

// StoredLocation returns the stored geocode tagged as CACHE when it can be
// trusted: both coordinates present and younger than ttl at now. Missing
// plus codes and H3 cells are derived from the coordinates.
func (p *Property) StoredLocation(ttl time.Duration, now time.Time) (Location, bool) {
	pt, ok := p.Point()
	if !ok || p.GeocodedAt == nil {
		return Location{}, false
	}
	if now.Sub(*p.GeocodedAt) >= ttl {
		return Location{}, false
	}

	loc := Location{
		Latitude:     pt.Lat,
		Longitude:    pt.Lng,
		PlusCode:     p.PlusCode,
		LocationType: p.LocationType,
		Source:       SourceCache,
		ResolvedAt:   *p.GeocodedAt,
		H3Cell:       p.H3Cell,
	}
	if loc.PlusCode == "" {
		loc.PlusCode = geo.EncodePlusCode(pt.Lat, pt.Lng)
	}
	if loc.H3Cell == "" {
		loc.H3Cell = geo.CellForPoint(pt, geo.H3ResolutionProperty)
	}
	if loc.LocationType == "" {
		loc.LocationType = LocationTypeAddress
	}
	if p.What3Words != "" {
		loc.What3Words = optional.Some(p.What3Words)
	}
	return loc, true
}

// ApplyLocation copies a freshly resolved location onto the record.
func (p *Property) ApplyLocation(loc Location) {
	lat, lng := loc.Latitude, loc.Longitude
	resolvedAt := loc.ResolvedAt
	p.Latitude = &lat
	p.Longitude = &lng
	p.PlusCode = loc.PlusCode
	p.What3Words = loc.What3Words.OrElse("")
	p.LocationType = loc.LocationType
	p.H3Cell = loc.H3Cell
	p.GeocodedAt = &resolvedAt
}

// Worker is a field worker belonging to one tenant.
type Worker struct {
	ID       string
	TenantID string
	Name     string
}

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusScheduled  JobStatus = "SCHEDULED"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusCancelled  JobStatus = "CANCELLED"
)

// IsUpcoming reports whether the job still needs the worker on site.
func (s JobStatus) IsUpcoming() bool {
	return s == JobStatusScheduled || s == JobStatusInProgress
}

// Job is a unit of work at a property.
type Job struct {
	ID               string
	TenantID         string
	PropertyID       string
	AssignedWorkerID string
	Status           JobStatus
	ScheduledDate    time.Time
}

// WorkerProperty is a property a worker has at least one job at, with the
// date of their next upcoming job there.
type WorkerProperty struct {
	Property    Property
	NextJobDate *time.Time
}

// CollectWorkerProperties returns each distinct property that has at least
// one of jobs assigned to workerID, ordered by property name. NextJobDate is
// the earliest scheduled or in-progress job on or after the start of today's
// date, or nil when there is none.
func CollectWorkerProperties(props map[string]Property, jobs []Job, workerID string, now time.Time) []WorkerProperty {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	byID := make(map[string]*WorkerProperty)
	for _, job := range jobs {
		if job.AssignedWorkerID != workerID {
			continue
		}
		prop, ok := props[job.PropertyID]
		if !ok {
			continue
		}

		wp, seen := byID[job.PropertyID]
		if !seen {
			wp = &WorkerProperty{Property: prop}
			byID[job.PropertyID] = wp
		}

		if !job.Status.IsUpcoming() || job.ScheduledDate.Before(today) {
			continue
		}
		if wp.NextJobDate == nil || job.ScheduledDate.Before(*wp.NextJobDate) {
			date := job.ScheduledDate
			wp.NextJobDate = &date
		}
	}

	out := make([]WorkerProperty, 0, len(byID))
	for _, wp := range byID {
		out = append(out, *wp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Property.Name != out[j].Property.Name {
			return out[i].Property.Name < out[j].Property.Name
		}
		return out[i].Property.ID < out[j].Property.ID
	})
	return out
}
