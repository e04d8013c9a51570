// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/rightfit/rightfit-navigation/errors"
	"github.com/rightfit/rightfit-navigation/property"
)

// MockPropertyStore is an in-memory property, worker and job store.
type MockPropertyStore struct {
	mu         sync.RWMutex
	properties map[string]property.Property
	workers    map[string]property.Worker
	jobs       []property.Job
	saves      []property.Location
	shouldFail bool
	failError  error
}

// NewMockPropertyStore creates an empty store.
func NewMockPropertyStore() *MockPropertyStore {
	return &MockPropertyStore{
		properties: make(map[string]property.Property),
		workers:    make(map[string]property.Worker),
	}
}

// AddProperty stores props, replacing any with the same ID.
func (m *MockPropertyStore) AddProperty(props ...property.Property) *MockPropertyStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range props {
		m.properties[p.ID] = p
	}
	return m
}

// AddWorker stores workers.
func (m *MockPropertyStore) AddWorker(workers ...property.Worker) *MockPropertyStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range workers {
		m.workers[w.ID] = w
	}
	return m
}

// AddJob stores jobs.
func (m *MockPropertyStore) AddJob(jobs ...property.Job) *MockPropertyStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, jobs...)
	return m
}

// SetShouldFail makes every call return err.
func (m *MockPropertyStore) SetShouldFail(shouldFail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = shouldFail
	m.failError = err
}

// GetProperty returns a copy of the property if it belongs to tenantID.
func (m *MockPropertyStore) GetProperty(_ context.Context, tenantID, propertyID string) (*property.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.shouldFail {
		return nil, m.failError
	}
	p, ok := m.properties[propertyID]
	if !ok || p.TenantID != tenantID {
		return nil, apperrors.NotFoundID("property", propertyID)
	}
	return &p, nil
}

// SaveLocation applies loc to the stored property.
func (m *MockPropertyStore) SaveLocation(_ context.Context, tenantID, propertyID string, loc property.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		return m.failError
	}
	p, ok := m.properties[propertyID]
	if !ok || p.TenantID != tenantID {
		return apperrors.NotFoundID("property", propertyID)
	}
	p.ApplyLocation(loc)
	m.properties[propertyID] = p
	m.saves = append(m.saves, loc)
	return nil
}

// GetWorker returns the worker by ID in any tenant.
func (m *MockPropertyStore) GetWorker(_ context.Context, workerID string) (*property.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.shouldFail {
		return nil, m.failError
	}
	w, ok := m.workers[workerID]
	if !ok {
		return nil, apperrors.NotFoundID("worker", workerID)
	}
	return &w, nil
}

// ListWorkerProperties returns the worker's properties within tenantID.
func (m *MockPropertyStore) ListWorkerProperties(_ context.Context, tenantID, workerID string, now time.Time) ([]property.WorkerProperty, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.shouldFail {
		return nil, m.failError
	}
	props := make(map[string]property.Property)
	for id, p := range m.properties {
		if p.TenantID == tenantID {
			props[id] = p
		}
	}
	return property.CollectWorkerProperties(props, m.jobs, workerID, now), nil
}

// ListStaleProperties returns the tenant's properties without a geocode
// younger than ttl.
func (m *MockPropertyStore) ListStaleProperties(_ context.Context, tenantID string, ttl time.Duration, now time.Time) ([]property.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.shouldFail {
		return nil, m.failError
	}
	var out []property.Property
	for _, p := range m.properties {
		if p.TenantID != tenantID {
			continue
		}
		if _, ok := p.StoredLocation(ttl, now); !ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Saves returns every location written so far.
func (m *MockPropertyStore) Saves() []property.Location {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]property.Location{}, m.saves...)
}

// Property returns the stored record.
func (m *MockPropertyStore) Property(id string) (property.Property, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.properties[id]
	return p, ok
}
