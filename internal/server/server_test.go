package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/agromind/internal/config"
)

func newTestServer(t *testing.T, driver string) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	app := &config.Config{
		Store: config.StoreConfig{Driver: driver},
		Map:   config.MapConfig{FallbackLat: 45.9432, FallbackLng: 24.9668, FallbackZoom: 7, RecenterZoom: 15},
	}
	srv, err := New(context.Background(), Config{Host: "localhost", Port: "8086", DataDir: dir, App: app})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv, dir
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServerRoutes(t *testing.T) {
	srv, _ := newTestServer(t, config.DriverFile)

	assert.Equal(t, http.StatusOK, get(t, srv, "/health").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/api/v1/map/viewport").Code)
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/api/v1/tables").Code, "sql console is duckdb only")

	metrics := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "agromind_http_requests_total")
}

func TestServerFileStorePersists(t *testing.T) {
	srv, dir := newTestServer(t, config.DriverFile)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/fields", strings.NewReader(`{"name":"North","coordinates":"44.3,23.7"}`))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	data, err := os.ReadFile(filepath.Join(dir, "fields.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "North")
}

func TestServerDuckDB(t *testing.T) {
	srv, dir := newTestServer(t, config.DriverDuckDB)

	rec := get(t, srv, "/api/v1/tables")
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "fields")
	assert.FileExists(t, filepath.Join(dir, "duckdb", "agromind.duckdb"))
}

func TestServerOpenAPI(t *testing.T) {
	srv, _ := newTestServer(t, config.DriverFile)
	spec := srv.OpenAPI()
	for _, path := range []string{
		"/health",
		"/api/v1/fields",
		"/api/v1/fields/{id}/geometry",
		"/api/v1/map/tiles/{z}/{x}/{y}",
		"/api/v1/map/events",
	} {
		assert.Contains(t, spec.Paths, path)
	}
}
