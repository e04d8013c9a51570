package database

import (
	"time"

	"github.com/rightfit/rightfit-navigation/property"
)

// PropertyModel is the GORM model for the properties table. The geocode
// columns are nullable until the property has been resolved.
type PropertyModel struct {
	ID           string     `gorm:"primaryKey;size:64"`
	TenantID     string     `gorm:"index;not null;size:64"`
	Name         string     `gorm:"not null;size:200"`
	Address      string     `gorm:"not null;size:500"`
	Postcode     string     `gorm:"size:20"`
	Latitude     *float64   `gorm:""`
	Longitude    *float64   `gorm:""`
	PlusCode     string     `gorm:"size:20"`
	What3Words   string     `gorm:"column:what3words;size:100"`
	LocationType string     `gorm:"size:30"`
	H3Cell       string     `gorm:"column:h3_cell;size:20;index"`
	GeocodedAt   *time.Time `gorm:"index"`
	CreatedAt    time.Time  `gorm:"not null"`
	UpdatedAt    time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (PropertyModel) TableName() string {
	return "properties"
}

// WorkerModel is the GORM model for the workers table.
type WorkerModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	TenantID  string    `gorm:"index;not null;size:64"`
	Name      string    `gorm:"not null;size:200"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (WorkerModel) TableName() string {
	return "workers"
}

// JobModel is the GORM model for the jobs table.
type JobModel struct {
	ID               string    `gorm:"primaryKey;size:64"`
	TenantID         string    `gorm:"index;not null;size:64"`
	PropertyID       string    `gorm:"index;not null;size:64"`
	AssignedWorkerID string    `gorm:"index;size:64"`
	Status           string    `gorm:"not null;size:30;index"`
	ScheduledDate    time.Time `gorm:"not null"`
	CreatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (JobModel) TableName() string {
	return "jobs"
}

// AllModels lists every model migrated by AutoMigrate.
func AllModels() []any {
	return []any{&PropertyModel{}, &WorkerModel{}, &JobModel{}}
}

func toDomainProperty(m *PropertyModel) property.Property {
	return property.Property{
		ID:           m.ID,
		TenantID:     m.TenantID,
		Name:         m.Name,
		Address:      m.Address,
		Postcode:     m.Postcode,
		Latitude:     m.Latitude,
		Longitude:    m.Longitude,
		PlusCode:     m.PlusCode,
		What3Words:   m.What3Words,
		LocationType: property.LocationType(m.LocationType),
		H3Cell:       m.H3Cell,
		GeocodedAt:   m.GeocodedAt,
	}
}

func toPropertyModel(p property.Property) *PropertyModel {
	return &PropertyModel{
		ID:           p.ID,
		TenantID:     p.TenantID,
		Name:         p.Name,
		Address:      p.Address,
		Postcode:     p.Postcode,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		PlusCode:     p.PlusCode,
		What3Words:   p.What3Words,
		LocationType: string(p.LocationType),
		H3Cell:       p.H3Cell,
		GeocodedAt:   p.GeocodedAt,
	}
}

func toDomainWorker(m *WorkerModel) property.Worker {
	return property.Worker{ID: m.ID, TenantID: m.TenantID, Name: m.Name}
}

func toDomainJob(m *JobModel) property.Job {
	return property.Job{
		ID:               m.ID,
		TenantID:         m.TenantID,
		PropertyID:       m.PropertyID,
		AssignedWorkerID: m.AssignedWorkerID,
		Status:           property.JobStatus(m.Status),
		ScheduledDate:    m.ScheduledDate,
	}
}

func toJobModel(j property.Job) *JobModel {
	return &JobModel{
		ID:               j.ID,
		TenantID:         j.TenantID,
		PropertyID:       j.PropertyID,
		AssignedWorkerID: j.AssignedWorkerID,
		Status:           string(j.Status),
		ScheduledDate:    j.ScheduledDate,
	}
}

// locationUpdates is the column set written by SaveLocation.
func locationUpdates(loc property.Location) map[string]any {
	return map[string]any{
		"latitude":      loc.Latitude,
		"longitude":     loc.Longitude,
		"plus_code":     loc.PlusCode,
		"what3words":    loc.What3Words.OrElse(""),
		"location_type": string(loc.LocationType),
		"h3_cell":       loc.H3Cell,
		"geocoded_at":   loc.ResolvedAt,
	}
}
