package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/agromind/internal/config"
	"github.com/joeblew999/agromind/internal/geometry"
	"github.com/joeblew999/agromind/internal/pmtiles"
	"github.com/joeblew999/agromind/internal/server"
	"github.com/joeblew999/agromind/internal/service"
)

func newTestServer(t *testing.T, driver string) *server.Server {
	t.Helper()
	app := &config.Config{
		Store: config.StoreConfig{Driver: driver},
		Map:   config.MapConfig{FallbackLat: 45.9432, FallbackLng: 24.9668, FallbackZoom: 7, RecenterZoom: 15},
	}
	srv, err := server.New(context.Background(), server.Config{Host: "localhost", Port: "8086", DataDir: t.TempDir(), App: app})
	require.NoError(t, err)
	return srv
}

func TestRunClosingClosesOnError(t *testing.T) {
	srv := newTestServer(t, config.DriverDuckDB)
	boom := errors.New("boom")

	err := runClosing(srv, func(*server.Server) error { return boom })
	assert.ErrorIs(t, err, boom)

	_, _, err = srv.Fields().List(context.Background(), 0, 10)
	assert.Error(t, err, "store should be closed")
}

func TestWriteSpec(t *testing.T) {
	srv := newTestServer(t, config.DriverFile)
	t.Cleanup(func() { srv.Close() })

	var buf bytes.Buffer
	require.NoError(t, writeSpec(&buf, srv, false))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Contains(t, doc, "paths")

	buf.Reset()
	require.NoError(t, writeSpec(&buf, srv, true))
	assert.Contains(t, buf.String(), "openapi:")
}

func TestExportArchive(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, config.DriverFile)
	t.Cleanup(func() { srv.Close() })
	out := filepath.Join(t.TempDir(), "fields.pmtiles")

	_, _, err := exportArchive(ctx, srv, out, 10, 12)
	require.Error(t, err, "no fields to export")
	assert.NoFileExists(t, out)

	_, err = srv.Fields().Create(ctx, service.Field{Name: "North", Coordinates: geometry.Location{{Lat: 44.3, Lng: 23.7}}})
	require.NoError(t, err)

	n, fields, err := exportArchive(ctx, srv, out, 10, 12)
	require.NoError(t, err)
	assert.Equal(t, 1, fields)
	assert.Positive(t, n)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	h, err := pmtiles.ReadHeader(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(n), h.TileCount)
}
