package geometry

import (
	"math"

	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// CenterOf returns the point to recentre the map on: the point itself, the
// midpoint of two, or the arithmetic mean of all stored points. The mean is
// not the polygon centroid; see [Centroid].
func CenterOf(loc Location) (Coordinate, bool) {
	switch len(loc) {
	case 0:
		return Coordinate{}, false
	case 1:
		return loc[0], true
	case 2:
		return midpoint(loc[0], loc[1]), true
	}

	var sum Coordinate
	for _, c := range loc {
		sum.Lat += c.Lat
		sum.Lng += c.Lng
	}
	n := float64(len(loc))
	return Coordinate{Lat: sum.Lat / n, Lng: sum.Lng / n}, true
}

// Centroid returns the area-weighted centroid of the resolved shape. Rings
// with zero area fall back to CenterOf.
func Centroid(loc Location) (Coordinate, bool) {
	shape, ok := Resolve(loc)
	if !ok {
		return Coordinate{}, false
	}
	if shape.Kind() == KindCircle {
		return shape.(Circle).Center, true
	}

	p, area := planar.CentroidArea(shape.Polygon())
	if area == 0 {
		return CenterOf(loc)
	}
	return FromPoint(p), true
}

// AreaHectares is the geodesic area of the shape's region.
func AreaHectares(s Shape) float64 {
	return math.Abs(geo.Area(s.Polygon())) / 10_000
}
