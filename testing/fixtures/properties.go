// Package fixtures provides test data for unit and integration tests.
package fixtures

import (
	"time"

	"github.com/google/uuid"

	"github.com/rightfit/rightfit-navigation/geo"
	"github.com/rightfit/rightfit-navigation/property"
)

// TenantID is the tenant every fixture belongs to.
const TenantID = "tenant-test-001"

// OtherTenantID owns nothing; use it for tenant-scope checks.
const OtherTenantID = "tenant-test-002"

// Reference coordinates around central London.
var (
	Westminster  = geo.Point{Lat: 51.5007, Lng: -0.1246}
	KingsCross   = geo.Point{Lat: 51.5320, Lng: -0.1233}
	Greenwich    = geo.Point{Lat: 51.4826, Lng: 0.0077}
	ShepherdBush = geo.Point{Lat: 51.5046, Lng: -0.2187}
)

// TestProperties contains predefined property fixtures.
var TestProperties = struct {
	Geocoded     property.Property
	Stale        property.Property
	NotGeocoded  property.Property
	FarGeocoded  property.Property
	OtherTenants property.Property
}{
	Geocoded:    GeocodedProperty("prop-001", "Kings Cross Flat", KingsCross, time.Now().Add(-24*time.Hour)),
	Stale:       GeocodedProperty("prop-002", "Westminster Office", Westminster, time.Now().Add(-45*24*time.Hour)),
	FarGeocoded: GeocodedProperty("prop-003", "Greenwich House", Greenwich, time.Now().Add(-2*24*time.Hour)),
	NotGeocoded: property.Property{
		ID:       "prop-004",
		TenantID: TenantID,
		Name:     "New Build Plot 7",
		Address:  "Plot 7, Meridian Way, London",
		Postcode: "SE10 0AA",
	},
	OtherTenants: property.Property{
		ID:       "prop-900",
		TenantID: OtherTenantID,
		Name:     "Elsewhere",
		Address:  "1 High Street, Leeds",
		Postcode: "LS1 1AA",
	},
}

// TestWorkers contains predefined worker fixtures.
var TestWorkers = struct {
	Cleaner  property.Worker
	Gardener property.Worker
}{
	Cleaner:  property.Worker{ID: "worker-001", TenantID: TenantID, Name: "Test Cleaner"},
	Gardener: property.Worker{ID: "worker-002", TenantID: TenantID, Name: "Test Gardener"},
}

// GeocodedProperty returns a tenant property with stored coordinates.
func GeocodedProperty(id, name string, p geo.Point, geocodedAt time.Time) property.Property {
	lat, lng := p.Lat, p.Lng
	at := geocodedAt
	return property.Property{
		ID:           id,
		TenantID:     TenantID,
		Name:         name,
		Address:      name + ", London",
		Postcode:     "N1 9AL",
		Latitude:     &lat,
		Longitude:    &lng,
		PlusCode:     geo.EncodePlusCode(lat, lng),
		LocationType: property.LocationTypeAddress,
		GeocodedAt:   &at,
	}
}

// NewRandomProperty creates a property with no stored geocode.
func NewRandomProperty(tenantID string) property.Property {
	id := uuid.New().String()
	return property.Property{
		ID:       id,
		TenantID: tenantID,
		Name:     "Property " + id[:8],
		Address:  id[:4] + " Test Street, London",
		Postcode: "E1 6AN",
	}
}

// NewJob creates a scheduled job for worker at prop, daysFromNow days out.
func NewJob(prop property.Property, worker property.Worker, daysFromNow int) property.Job {
	return property.Job{
		ID:               uuid.New().String(),
		TenantID:         prop.TenantID,
		PropertyID:       prop.ID,
		AssignedWorkerID: worker.ID,
		Status:           property.JobStatusScheduled,
		ScheduledDate:    time.Now().AddDate(0, 0, daysFromNow),
	}
}
