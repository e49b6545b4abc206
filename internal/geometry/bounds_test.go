package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBoundsFallback(t *testing.T) {
	vp := ComputeBounds(nil, DefaultFallback)
	assert.False(t, vp.Fit())
	assert.Nil(t, vp.Bounds)
	assert.Equal(t, DefaultFallback.Center, vp.Center)
	assert.Equal(t, DefaultFallback.Zoom, vp.Zoom)

	vp = ComputeBounds([]Location{nil, {}}, Fallback{Center: Coordinate{1, 2}, Zoom: 3})
	assert.False(t, vp.Fit())
	assert.Equal(t, Coordinate{1, 2}, vp.Center)
	assert.Equal(t, 3, vp.Zoom)
}

func TestComputeBoundsSpansAllFields(t *testing.T) {
	locs := []Location{
		{{Lat: 44.5, Lng: 24.0}},
		nil,
		{{Lat: 44.0, Lng: 23.5}, {Lat: 44.2, Lng: 23.6}},
		{{Lat: 44.8, Lng: 23.0}, {Lat: 45.0, Lng: 23.2}, {Lat: 44.9, Lng: 23.9}},
	}
	vp := ComputeBounds(locs, DefaultFallback)
	require.True(t, vp.Fit())
	assert.Equal(t, Bounds{MinLat: 44.0, MinLng: 23.0, MaxLat: 45.0, MaxLng: 24.0}, *vp.Bounds)
	assert.InDelta(t, 44.5, vp.Center.Lat, 1e-12)
	assert.InDelta(t, 23.5, vp.Center.Lng, 1e-12)
}

func TestComputeBoundsSinglePoint(t *testing.T) {
	vp := ComputeBounds([]Location{{{Lat: 44.31, Lng: 23.79}}}, DefaultFallback)
	require.True(t, vp.Fit())
	assert.Equal(t, 44.31, vp.Bounds.MinLat)
	assert.Equal(t, 44.31, vp.Bounds.MaxLat)
}

func TestCenterOf(t *testing.T) {
	_, ok := CenterOf(nil)
	assert.False(t, ok)

	c, ok := CenterOf(Location{{Lat: 44.31, Lng: 23.79}})
	require.True(t, ok)
	assert.Equal(t, Coordinate{Lat: 44.31, Lng: 23.79}, c)

	c, _ = CenterOf(Location{{0, 0}, {2, 4}})
	assert.Equal(t, Coordinate{1, 2}, c)

	c, _ = CenterOf(Location{{0, 0}, {0, 3}, {3, 0}})
	assert.Equal(t, Coordinate{1, 1}, c)
}

func TestCentroidDiffersFromMeanForIrregularRing(t *testing.T) {
	// An L-shaped field with extra vertices bunched on one side.
	loc := Location{{0, 0}, {0, 4}, {1, 4}, {1, 1}, {1, 0.5}, {4, 1}, {4, 0}}
	mean, _ := CenterOf(loc)
	centroid, ok := Centroid(loc)
	require.True(t, ok)
	assert.Greater(t, math.Hypot(mean.Lat-centroid.Lat, mean.Lng-centroid.Lng), 0.01)
}

func TestCentroidSquare(t *testing.T) {
	c, ok := Centroid(Location{{0, 0}, {0, 2}, {2, 2}, {2, 0}})
	require.True(t, ok)
	assert.InDelta(t, 1, c.Lat, 1e-9)
	assert.InDelta(t, 1, c.Lng, 1e-9)
}

func TestCentroidDegenerateFallsBack(t *testing.T) {
	loc := Location{{0, 0}, {1, 1}, {2, 2}}
	c, ok := Centroid(loc)
	require.True(t, ok)
	assert.Equal(t, Coordinate{1, 1}, c)
}

func TestCentroidCircle(t *testing.T) {
	c, ok := Centroid(Location{{Lat: 5, Lng: 6}})
	require.True(t, ok)
	assert.Equal(t, Coordinate{Lat: 5, Lng: 6}, c)
}

func TestAreaHectares(t *testing.T) {
	// ~0.01° square near the equator is roughly 1.11km x 1.11km.
	shape, _ := Resolve(Location{{0, 0}, {0, 0.01}, {0.01, 0.01}, {0.01, 0}})
	assert.InDelta(t, 123.6, AreaHectares(shape), 2)
}
