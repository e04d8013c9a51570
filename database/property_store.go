package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/rightfit/rightfit-navigation/errors"
	"github.com/rightfit/rightfit-navigation/property"
)

// PropertyStore is the GORM implementation of the property, worker and job
// store. Every property read is scoped by tenant.
type PropertyStore struct {
	db *gorm.DB
}

// NewPropertyStore creates a new PropertyStore.
func NewPropertyStore(db *gorm.DB) *PropertyStore {
	return &PropertyStore{db: db}
}

// GetProperty returns the property if it belongs to tenantID. A property in
// another tenant is reported as not found.
func (s *PropertyStore) GetProperty(ctx context.Context, tenantID, propertyID string) (*property.Property, error) {
	var model PropertyModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", propertyID, tenantID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundID("property", propertyID)
		}
		return nil, fmt.Errorf("failed to find property by ID: %w", err)
	}

	p := toDomainProperty(&model)
	return &p, nil
}

// SaveLocation writes a resolved location onto the property record.
// Transient database errors are retried.
func (s *PropertyStore) SaveLocation(ctx context.Context, tenantID, propertyID string, loc property.Location) error {
	return Retry(ctx, DefaultRetryConfig(), func() error {
		result := s.db.WithContext(ctx).
			Model(&PropertyModel{}).
			Where("id = ? AND tenant_id = ?", propertyID, tenantID).
			Updates(locationUpdates(loc))
		if result.Error != nil {
			return fmt.Errorf("failed to save property location: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFoundID("property", propertyID)
		}
		return nil
	})
}

// GetWorker returns a worker by ID. Callers check the tenant.
func (s *PropertyStore) GetWorker(ctx context.Context, workerID string) (*property.Worker, error) {
	var model WorkerModel
	if err := s.db.WithContext(ctx).Where("id = ?", workerID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundID("worker", workerID)
		}
		return nil, fmt.Errorf("failed to find worker by ID: %w", err)
	}

	w := toDomainWorker(&model)
	return &w, nil
}

// ListWorkerProperties returns the distinct properties in tenantID that have
// a job assigned to the worker, each with its next upcoming job date.
func (s *PropertyStore) ListWorkerProperties(ctx context.Context, tenantID, workerID string, now time.Time) ([]property.WorkerProperty, error) {
	var jobModels []JobModel
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND assigned_worker_id = ?", tenantID, workerID).
		Find(&jobModels).Error; err != nil {
		return nil, fmt.Errorf("failed to find worker jobs: %w", err)
	}
	if len(jobModels) == 0 {
		return []property.WorkerProperty{}, nil
	}

	jobs := make([]property.Job, len(jobModels))
	ids := make([]string, 0, len(jobModels))
	seen := make(map[string]bool, len(jobModels))
	for i := range jobModels {
		jobs[i] = toDomainJob(&jobModels[i])
		if !seen[jobs[i].PropertyID] {
			seen[jobs[i].PropertyID] = true
			ids = append(ids, jobs[i].PropertyID)
		}
	}

	var propModels []PropertyModel
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&propModels).Error; err != nil {
		return nil, fmt.Errorf("failed to find worker properties: %w", err)
	}

	props := make(map[string]property.Property, len(propModels))
	for i := range propModels {
		p := toDomainProperty(&propModels[i])
		props[p.ID] = p
	}

	return property.CollectWorkerProperties(props, jobs, workerID, now), nil
}

// ListStaleProperties returns the tenant's properties that have no trusted
// geocode at now: missing coordinates or a geocode older than ttl.
func (s *PropertyStore) ListStaleProperties(ctx context.Context, tenantID string, ttl time.Duration, now time.Time) ([]property.Property, error) {
	var models []PropertyModel
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where(s.db.Where("latitude IS NULL").
			Or("longitude IS NULL").
			Or("geocoded_at IS NULL").
			Or("geocoded_at <= ?", now.Add(-ttl))).
		Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find stale properties: %w", err)
	}

	props := make([]property.Property, len(models))
	for i := range models {
		props[i] = toDomainProperty(&models[i])
	}
	return props, nil
}

// CreateProperty inserts a property.
func (s *PropertyStore) CreateProperty(ctx context.Context, p property.Property) error {
	if err := s.db.WithContext(ctx).Create(toPropertyModel(p)).Error; err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

// CreateWorker inserts a worker.
func (s *PropertyStore) CreateWorker(ctx context.Context, w property.Worker) error {
	model := &WorkerModel{ID: w.ID, TenantID: w.TenantID, Name: w.Name}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}
	return nil
}

// CreateJob inserts a job.
func (s *PropertyStore) CreateJob(ctx context.Context, j property.Job) error {
	if err := s.db.WithContext(ctx).Create(toJobModel(j)).Error; err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}
