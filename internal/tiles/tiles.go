// Package tiles encodes field shapes as Mapbox vector tiles.
package tiles

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/simplify"

	"github.com/joeblew999/agromind/internal/geometry"
	"github.com/joeblew999/agromind/internal/metrics"
	"github.com/joeblew999/agromind/internal/pmtiles"
	"github.com/joeblew999/agromind/internal/service"
)

// Layer is the vector layer holding field shapes.
const Layer = "fields"

// MaxZoom is the deepest tile zoom served.
const MaxZoom = 22

// Valid reports whether z/x/y addresses an existing tile.
func Valid(z, x, y int) bool {
	if z < 0 || z > MaxZoom || x < 0 || y < 0 {
		return false
	}
	n := 1 << z
	return x < n && y < n
}

// Encode renders the shapes intersecting t as a gzipped MVT. An empty tile
// returns nil data and no error.
func Encode(t maptile.Tile, shapes []service.FieldShape) ([]byte, error) {
	bound := t.Bound()
	fc := geojson.NewFeatureCollection()
	for _, fs := range shapes {
		poly := fs.Shape.Polygon()
		if !poly.Bound().Intersects(bound) {
			continue
		}
		// mvt projects and clips in place
		f := geojson.NewFeature(orb.Clone(poly))
		f.ID = fs.Field.ID
		f.Properties["id"] = fs.Field.ID
		f.Properties["name"] = fs.Field.Name
		f.Properties["shape"] = string(fs.Shape.Kind())
		f.Properties["fill"] = fs.Field.DisplayColor()
		if fs.Field.Crop != "" {
			f.Properties["crop"] = fs.Field.Crop
		}
		fc.Append(f)
	}
	if len(fc.Features) == 0 {
		return nil, nil
	}

	layer := mvt.NewLayer(Layer, fc)
	layer.ProjectToTile(t)
	layer.Clip(mvt.MapboxGLDefaultExtentBound)
	layer.Simplify(simplify.DouglasPeucker(1.0))
	layer.RemoveEmpty(0.5, 0.5)
	if len(layer.Features) == 0 {
		return nil, nil
	}

	data, err := mvt.MarshalGzipped(mvt.Layers{layer})
	if err != nil {
		return nil, fmt.Errorf("encoding tile %d/%d/%d: %w", t.Z, t.X, t.Y, err)
	}
	metrics.TilesEncoded.Inc()
	return data, nil
}

// Covering returns the tiles at zoom z that the bound touches.
func Covering(b orb.Bound, z maptile.Zoom) []maptile.Tile {
	lo := maptile.At(orb.Point{b.Min[0], b.Max[1]}, z)
	hi := maptile.At(orb.Point{b.Max[0], b.Min[1]}, z)

	var out []maptile.Tile
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			out = append(out, maptile.New(x, y, z))
		}
	}
	return out
}

// Archive writes every non-empty tile for the zoom range into a PMTiles
// archive and returns the number of tiles written.
func Archive(w io.Writer, shapes []service.FieldShape, minZoom, maxZoom int) (int, error) {
	if minZoom < 0 || maxZoom > MaxZoom || minZoom > maxZoom {
		return 0, fmt.Errorf("invalid zoom range %d-%d", minZoom, maxZoom)
	}
	if len(shapes) == 0 {
		return 0, fmt.Errorf("no fields with geometry")
	}

	bound := shapes[0].Shape.Polygon().Bound()
	for _, fs := range shapes[1:] {
		bound = bound.Union(fs.Shape.Polygon().Bound())
	}

	var out []pmtiles.Tile
	for z := minZoom; z <= maxZoom; z++ {
		for _, t := range Covering(bound, maptile.Zoom(z)) {
			data, err := Encode(t, shapes)
			if err != nil {
				return 0, err
			}
			if data == nil {
				continue
			}
			out = append(out, pmtiles.Tile{Z: uint8(t.Z), X: t.X, Y: t.Y, Data: data})
		}
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("no tiles in zoom range %d-%d", minZoom, maxZoom)
	}

	vp := geometry.FromBound(bound)
	err := pmtiles.Write(w, out, pmtiles.Metadata{
		Name:       Layer,
		MinZoom:    uint8(minZoom),
		MaxZoom:    uint8(maxZoom),
		Bounds:     [4]float64{vp.MinLng, vp.MinLat, vp.MaxLng, vp.MaxLat},
		CenterZoom: uint8(minZoom),
		Layers:     []string{Layer},
	})
	if err != nil {
		return 0, err
	}
	return len(out), nil
}
