package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/agromind/internal/geometry"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverFile, cfg.Store.Driver)
	assert.Equal(t, geometry.DefaultFallback, cfg.Map.Fallback())
	assert.Equal(t, 15, cfg.Map.RecenterZoom)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agromind.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: duckdb
map:
  fallback_lat: 44.31
  fallback_lng: 23.79
  fallback_zoom: 9
`), 0644))

	t.Setenv("AGROMIND_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverDuckDB, cfg.Store.Driver)
	assert.Equal(t, geometry.Fallback{Center: geometry.Coordinate{Lat: 44.31, Lng: 23.79}, Zoom: 9}, cfg.Map.Fallback())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Store: StoreConfig{Driver: DriverPostgres},
		Map:   MapConfig{FallbackLat: 95, FallbackZoom: 30},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.dsn is required")
	assert.Contains(t, err.Error(), "out of range")
	assert.Contains(t, err.Error(), "fallback_zoom")

	cfg = &Config{Store: StoreConfig{Driver: "mongo"}}
	assert.ErrorContains(t, cfg.Validate(), `got "mongo"`)
}
