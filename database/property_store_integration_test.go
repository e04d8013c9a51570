//go:build integration

package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rightfit/rightfit-navigation/errors"
	"github.com/rightfit/rightfit-navigation/optional"
	"github.com/rightfit/rightfit-navigation/property"
	pkgtesting "github.com/rightfit/rightfit-navigation/testing"
	"github.com/rightfit/rightfit-navigation/testing/fixtures"
)

func TestPropertyStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := pkgtesting.TestContextWithTimeout(t, 2*time.Minute)

	container, err := pkgtesting.StartPostgresContainer(ctx)
	require.NoError(t, err, "failed to start Postgres container")
	t.Cleanup(pkgtesting.CleanupContainer(ctx, container))

	pg, err := NewPostgres(ctx, DefaultPostgresConfig(container.ConnectionString), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Close() })

	store := NewPropertyStore(pg.DB())
	cleaner := fixtures.TestWorkers.Cleaner

	require.NoError(t, store.CreateWorker(ctx, cleaner))
	for _, p := range []property.Property{
		fixtures.TestProperties.Geocoded,
		fixtures.TestProperties.Stale,
		fixtures.TestProperties.NotGeocoded,
		fixtures.TestProperties.FarGeocoded,
		fixtures.TestProperties.OtherTenants,
	} {
		require.NoError(t, store.CreateProperty(ctx, p))
	}
	for _, j := range []property.Job{
		fixtures.NewJob(fixtures.TestProperties.Geocoded, cleaner, 1),
		fixtures.NewJob(fixtures.TestProperties.Geocoded, cleaner, 5),
		fixtures.NewJob(fixtures.TestProperties.NotGeocoded, cleaner, -3),
		fixtures.NewJob(fixtures.TestProperties.FarGeocoded, fixtures.TestWorkers.Gardener, 1),
	} {
		require.NoError(t, store.CreateJob(ctx, j))
	}

	t.Run("GetProperty", func(t *testing.T) {
		p, err := store.GetProperty(ctx, fixtures.TenantID, fixtures.TestProperties.Geocoded.ID)
		require.NoError(t, err)
		assert.Equal(t, fixtures.TestProperties.Geocoded.Name, p.Name)
		require.True(t, p.HasCoordinates())
		assert.InDelta(t, fixtures.KingsCross.Lat, *p.Latitude, 1e-9)
	})

	t.Run("GetProperty_OtherTenant", func(t *testing.T) {
		_, err := store.GetProperty(ctx, fixtures.TenantID, fixtures.TestProperties.OtherTenants.ID)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("GetWorker", func(t *testing.T) {
		w, err := store.GetWorker(ctx, cleaner.ID)
		require.NoError(t, err)
		assert.Equal(t, fixtures.TenantID, w.TenantID)

		_, err = store.GetWorker(ctx, "worker-missing")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("ListWorkerProperties", func(t *testing.T) {
		props, err := store.ListWorkerProperties(ctx, fixtures.TenantID, cleaner.ID, time.Now())
		require.NoError(t, err)
		require.Len(t, props, 2)

		byID := map[string]property.WorkerProperty{}
		for _, wp := range props {
			byID[wp.Property.ID] = wp
		}
		next := byID[fixtures.TestProperties.Geocoded.ID].NextJobDate
		require.NotNil(t, next)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 1), *next, time.Minute)
		assert.Nil(t, byID[fixtures.TestProperties.NotGeocoded.ID].NextJobDate)
	})

	t.Run("ListStaleProperties", func(t *testing.T) {
		stale, err := store.ListStaleProperties(ctx, fixtures.TenantID, 30*24*time.Hour, time.Now())
		require.NoError(t, err)

		var ids []string
		for _, p := range stale {
			ids = append(ids, p.ID)
		}
		assert.ElementsMatch(t, []string{
			fixtures.TestProperties.Stale.ID,
			fixtures.TestProperties.NotGeocoded.ID,
		}, ids)
	})

	t.Run("SaveLocation", func(t *testing.T) {
		at := time.Now().UTC().Truncate(time.Second)
		loc := property.Location{
			Latitude:     51.4769,
			Longitude:    -0.0005,
			PlusCode:     "9C3XGWGX+QR",
			What3Words:   optional.Some("index.home.raft"),
			LocationType: property.LocationTypeAddress,
			Source:       property.SourceFresh,
			ResolvedAt:   at,
			H3Cell:       "8a195da4a9affff",
		}
		require.NoError(t, store.SaveLocation(ctx, fixtures.TenantID, fixtures.TestProperties.NotGeocoded.ID, loc))

		p, err := store.GetProperty(ctx, fixtures.TenantID, fixtures.TestProperties.NotGeocoded.ID)
		require.NoError(t, err)
		stored, ok := p.StoredLocation(time.Hour, at.Add(time.Minute))
		require.True(t, ok)
		assert.Equal(t, "index.home.raft", stored.What3Words.OrElse(""))
		assert.Equal(t, "9C3XGWGX+QR", stored.PlusCode)
		assert.Equal(t, property.SourceCache, stored.Source)
	})

	t.Run("SaveLocation_OtherTenant", func(t *testing.T) {
		err := store.SaveLocation(ctx, fixtures.OtherTenantID, fixtures.TestProperties.Geocoded.ID, property.Location{})
		assert.True(t, apperrors.IsNotFound(err))
	})
}
