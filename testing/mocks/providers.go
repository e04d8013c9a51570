package mocks

import (
	"context"
	"sync"

	"github.com/rightfit/rightfit-navigation/geo"
	"github.com/rightfit/rightfit-navigation/maps"
)

// MockGeocodeProvider returns canned Nominatim results and counts calls.
type MockGeocodeProvider struct {
	mu           sync.Mutex
	matches      map[string][]maps.GeocodeMatch
	reverse      *maps.ReverseResult
	err          error
	searchCalls  int
	reverseCalls int
}

// NewMockGeocodeProvider creates a provider that finds nothing.
func NewMockGeocodeProvider() *MockGeocodeProvider {
	return &MockGeocodeProvider{matches: make(map[string][]maps.GeocodeMatch)}
}

// SetMatch makes Search(address) return m.
func (m *MockGeocodeProvider) SetMatch(address string, match maps.GeocodeMatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[address] = []maps.GeocodeMatch{match}
}

// RemoveMatch makes Search(address) find nothing.
func (m *MockGeocodeProvider) RemoveMatch(address string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.matches, address)
}

// SetReverse makes Reverse return r.
func (m *MockGeocodeProvider) SetReverse(r *maps.ReverseResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reverse = r
}

// SetError makes every call return err.
func (m *MockGeocodeProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Search implements geocode.Provider.
func (m *MockGeocodeProvider) Search(_ context.Context, address string) ([]maps.GeocodeMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.matches[address], nil
}

// Reverse implements geocode.Provider.
func (m *MockGeocodeProvider) Reverse(_ context.Context, _ geo.Point) (*maps.ReverseResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reverseCalls++
	if m.err != nil {
		return nil, m.err
	}
	if m.reverse == nil {
		return &maps.ReverseResult{}, nil
	}
	return m.reverse, nil
}

// SearchCalls returns the number of Search calls.
func (m *MockGeocodeProvider) SearchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchCalls
}

// ReverseCalls returns the number of Reverse calls.
func (m *MockGeocodeProvider) ReverseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reverseCalls
}

// MockWordsProvider returns a fixed three-word address.
type MockWordsProvider struct {
	Words string
	Err   error
}

// ConvertTo3WA implements geocode.WordsProvider.
func (m *MockWordsProvider) ConvertTo3WA(_ context.Context, _ geo.Point) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.Words, nil
}
