package geometry

import "github.com/paulmach/orb"

// Bounds is an enclosing lat/lng rectangle.
type Bounds struct {
	MinLat float64 `json:"minLat" doc:"Southern edge"`
	MinLng float64 `json:"minLng" doc:"Western edge"`
	MaxLat float64 `json:"maxLat" doc:"Northern edge"`
	MaxLng float64 `json:"maxLng" doc:"Eastern edge"`
}

// FromBound converts an orb bound.
func FromBound(b orb.Bound) Bounds {
	return Bounds{MinLat: b.Min.Lat(), MinLng: b.Min.Lon(), MaxLat: b.Max.Lat(), MaxLng: b.Max.Lon()}
}

// Bound converts back to an orb bound.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinLng, b.MinLat}, Max: orb.Point{b.MaxLng, b.MaxLat}}
}

// Fallback is the fixed viewport used when nothing has coordinates.
type Fallback struct {
	Center Coordinate `json:"center"`
	Zoom   int        `json:"zoom"`
}

// DefaultFallback centres the map on Romania.
var DefaultFallback = Fallback{
	Center: Coordinate{Lat: 45.9432, Lng: 24.9668},
	Zoom:   7,
}

// Viewport is either a rectangle to fit or a fixed centre and zoom.
// Bounds is nil exactly when the fallback applies.
type Viewport struct {
	Bounds *Bounds
	Center Coordinate
	Zoom   int
}

// Fit reports whether the caller should fit the map to Bounds.
func (v Viewport) Fit() bool { return v.Bounds != nil }

// ComputeBounds flattens every coordinate of every location and returns the
// minimal enclosing rectangle, or fb when there are no coordinates at all.
func ComputeBounds(locs []Location, fb Fallback) Viewport {
	var (
		bound orb.Bound
		seen  bool
	)
	for _, loc := range locs {
		for _, c := range loc {
			if !seen {
				bound = c.Point().Bound()
				seen = true
				continue
			}
			bound = bound.Extend(c.Point())
		}
	}

	if !seen {
		return Viewport{Center: fb.Center, Zoom: fb.Zoom}
	}

	b := FromBound(bound)
	return Viewport{Bounds: &b, Center: FromPoint(bound.Center())}
}
