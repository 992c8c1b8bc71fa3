package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DEPOT_LAT", "DEPOT_LON", "GEOCODE_CACHE", "GEOCODE_TIMEOUT", "ROUTE_CONCURRENCY", "DATABASE_URL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, defaultDepot, cfg.Depot)
	assert.Equal(t, CacheSQLite, cfg.GeocodeCache)
	assert.Equal(t, 10*time.Second, cfg.GeocodeTimeout)
	assert.Equal(t, 4, cfg.RouteConcurrency)
}

func TestLoadOverridesAndBadValues(t *testing.T) {
	t.Setenv("DEPOT_LAT", "19.0760")
	t.Setenv("DEPOT_LON", "72.8777")
	t.Setenv("GEOCODE_TIMEOUT", "soon")
	t.Setenv("GEOCODE_CACHE", "Redis")
	t.Setenv("ROUTE_CONCURRENCY", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 19.0760, cfg.Depot.Lat, 1e-9)
	assert.InDelta(t, 72.8777, cfg.Depot.Lon, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.GeocodeTimeout)
	assert.Equal(t, CacheRedis, cfg.GeocodeCache)
	assert.Equal(t, 8, cfg.RouteConcurrency)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("GEOCODE_CACHE", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	assert.ErrorContains(t, err, "requires DATABASE_URL")

	t.Setenv("GEOCODE_CACHE", "none")
	t.Setenv("DEPOT_LAT", "51.5")
	t.Setenv("DEPOT_LON", "-0.12")
	_, err = Load()
	assert.ErrorContains(t, err, "outside service area")
}
