package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rightfit/rightfit-navigation/errors"
	"github.com/rightfit/rightfit-navigation/property"
	"github.com/rightfit/rightfit-navigation/testing/fixtures"
)

func newBackfillHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	h.store.AddProperty(
		fixtures.GeocodedProperty("prop-010", "Fresh Flat", fixtures.KingsCross, h.now.Add(-24*time.Hour)),
		property.Property{ID: "prop-011", TenantID: fixtures.TenantID, Name: "Unknown Plot", Address: "Nowhere Lane"},
	)
	return h
}

func TestBackfill_ResolvesStaleAndSkipsFailures(t *testing.T) {
	h := newBackfillHarness(t)

	res, err := h.service.Backfill(context.Background(), h.store, fixtures.TenantID, false)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Resolved)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, apperrors.CodeAddressNotFound, res.Failures["prop-011"])
	assert.Equal(t, 2, h.provider.SearchCalls(), "fresh property must not be looked up")

	saved, ok := h.store.Property(fixtures.TestProperties.NotGeocoded.ID)
	require.True(t, ok)
	assert.NotNil(t, saved.Latitude)
}

func TestBackfill_ForceIncludesFreshProperties(t *testing.T) {
	h := newBackfillHarness(t)

	res, err := h.service.Backfill(context.Background(), h.store, fixtures.TenantID, true)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Resolved+res.Failed)
	assert.Contains(t, res.Failures, "prop-010")
}

func TestBackfill_OtherTenantUntouched(t *testing.T) {
	h := newBackfillHarness(t)

	res, err := h.service.Backfill(context.Background(), h.store, fixtures.OtherTenantID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed, "the other tenant's only property has no match")
	assert.Zero(t, res.Resolved)
}

func TestBackfill_ListErrorStopsRun(t *testing.T) {
	h := newBackfillHarness(t)
	h.store.SetShouldFail(true, errors.New("connection refused"))

	_, err := h.service.Backfill(context.Background(), h.store, fixtures.TenantID, false)
	require.Error(t, err)
	assert.Zero(t, h.provider.SearchCalls())
}

func TestBackfill_StopsOnCancel(t *testing.T) {
	h := newBackfillHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := h.service.Backfill(ctx, h.store, fixtures.TenantID, false)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Resolved+res.Failed)
}
