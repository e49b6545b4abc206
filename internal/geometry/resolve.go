package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// Kind names a resolved shape.
type Kind string

const (
	KindCircle  Kind = "circle"
	KindPolygon Kind = "polygon"
)

// Radii and vertex counts used when a field has fewer than three points.
const (
	PointRadius    = 0.002 // ~200m
	PointSides     = 12
	MidpointRadius = 0.003 // ~300m
	MidpointSides  = 16
)

// Shape is a renderable, always closed field region.
type Shape interface {
	Kind() Kind
	// Ring returns the closed boundary, first vertex repeated last.
	Ring() orb.Ring
	// Polygon returns the ring as a single-ring orb polygon.
	Polygon() orb.Polygon
}

// Circle approximates a disc by a regular polygon for rendering.
type Circle struct {
	Center        Coordinate
	RadiusDegrees float64
	Sides         int
}

func (c Circle) Kind() Kind { return KindCircle }

// Vertices returns exactly Sides points, each RadiusDegrees from Center.
func (c Circle) Vertices() []Coordinate {
	vs := make([]Coordinate, c.Sides)
	for i := range c.Sides {
		theta := 2 * math.Pi * float64(i) / float64(c.Sides)
		vs[i] = Coordinate{
			Lat: c.Center.Lat + c.RadiusDegrees*math.Sin(theta),
			Lng: c.Center.Lng + c.RadiusDegrees*math.Cos(theta),
		}
	}
	return vs
}

func (c Circle) Ring() orb.Ring {
	vs := c.Vertices()
	ring := make(orb.Ring, 0, len(vs)+1)
	for _, v := range vs {
		ring = append(ring, v.Point())
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}

func (c Circle) Polygon() orb.Polygon { return orb.Polygon{c.Ring()} }

// Polygon is a field boundary with a closed ring.
type Polygon struct {
	Coordinates []Coordinate
}

func (p Polygon) Kind() Kind { return KindPolygon }

func (p Polygon) Ring() orb.Ring {
	ring := make(orb.Ring, len(p.Coordinates))
	for i, c := range p.Coordinates {
		ring[i] = c.Point()
	}
	return ring
}

func (p Polygon) Polygon() orb.Polygon { return orb.Polygon{p.Ring()} }

// Resolve converts a field's coordinates into a drawable shape. It returns
// false when the location is absent. Coordinate values are not validated;
// NaN propagates into the shape.
func Resolve(loc Location) (Shape, bool) {
	switch len(loc) {
	case 0:
		return nil, false
	case 1:
		return Circle{Center: loc[0], RadiusDegrees: PointRadius, Sides: PointSides}, true
	case 2:
		return Circle{Center: midpoint(loc[0], loc[1]), RadiusDegrees: MidpointRadius, Sides: MidpointSides}, true
	}

	ring := make([]Coordinate, len(loc), len(loc)+1)
	copy(ring, loc)
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return Polygon{Coordinates: ring}, true
}

func midpoint(a, b Coordinate) Coordinate {
	return Coordinate{Lat: (a.Lat + b.Lat) / 2, Lng: (a.Lng + b.Lng) / 2}
}
