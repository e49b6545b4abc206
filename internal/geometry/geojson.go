package geometry

import "github.com/paulmach/orb/geojson"

// Feature encodes a shape as a GeoJSON polygon feature. Circles carry their
// centre and radius as properties so clients can draw a native circle instead.
func Feature(s Shape) *geojson.Feature {
	f := geojson.NewFeature(s.Polygon())
	f.Properties["shape"] = string(s.Kind())
	if c, ok := s.(Circle); ok {
		f.Properties["center"] = []float64{c.Center.Lng, c.Center.Lat}
		f.Properties["radiusDegrees"] = c.RadiusDegrees
	}
	return f
}
