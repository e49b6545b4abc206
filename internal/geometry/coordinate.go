// Package geometry turns stored field coordinates into shapes a map can draw.
//
// A field's location is absent, a single point, or an ordered sequence of
// points. [Resolve] maps those onto a small circle, a circle around a
// midpoint, or a closed polygon. [ComputeBounds] and [CenterOf] position the
// map viewport. Everything here is a pure function of its input.
package geometry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// ErrCoordinateFormat is returned when human-entered text cannot be parsed.
var ErrCoordinateFormat = errors.New("coordinates must be in the form latitude,longitude")

// Coordinate is a WGS84 position.
type Coordinate struct {
	Lat float64 `json:"lat" doc:"Latitude in degrees" example:"44.31"`
	Lng float64 `json:"lng" doc:"Longitude in degrees" example:"23.79"`
}

// Point returns the coordinate as an orb point (lng, lat order).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// FromPoint converts an orb point back to a Coordinate.
func FromPoint(p orb.Point) Coordinate {
	return Coordinate{Lat: p.Lat(), Lng: p.Lon()}
}

// InRange reports whether the coordinate lies inside the valid lat/lng range.
// NaN is never in range.
func (c Coordinate) InRange() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// Location is the raw geometry of a field in ring order. A nil or empty
// Location means the field has no geometry.
type Location []Coordinate

// Points converts the location to an orb multipoint.
func (l Location) Points() orb.MultiPoint {
	mp := make(orb.MultiPoint, len(l))
	for i, c := range l {
		mp[i] = c.Point()
	}
	return mp
}

// Validate checks every coordinate is in range.
func (l Location) Validate() error {
	for i, c := range l {
		if !c.InRange() {
			return fmt.Errorf("coordinate %d (%s) is out of range", i, c)
		}
	}
	return nil
}

// MarshalJSON encodes an absent location as null and anything else as an array.
func (l Location) MarshalJSON() ([]byte, error) {
	if len(l) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal([]Coordinate(l))
}

// UnmarshalJSON accepts null, a single {lat,lng} object, an array of them,
// or a JSON string holding any of those or "lat,lng; lat,lng" text.
func (l *Location) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	switch data[0] {
	case '{':
		var c Coordinate
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("decode coordinate: %w", err)
		}
		*l = Location{c}
		return nil
	case '[':
		var cs []Coordinate
		if err := json.Unmarshal(data, &cs); err != nil {
			return fmt.Errorf("decode coordinates: %w", err)
		}
		*l = Location(cs)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") || s == "null" {
			return l.UnmarshalJSON([]byte(s))
		}
		parsed, err := ParseCoordinates(s)
		if err != nil {
			return err
		}
		*l = parsed
		return nil
	}
	return fmt.Errorf("decode coordinates: unexpected %q", data[0])
}

// ParseCoordinates parses human-entered text. Points are separated by ';' or
// newlines and each point is "latitude,longitude". Blank text yields an
// absent location.
func ParseCoordinates(text string) (Location, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ';' || r == '\n' || r == '\r'
	})

	var loc Location
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		c, err := parsePoint(f)
		if err != nil {
			return nil, err
		}
		loc = append(loc, c)
	}
	return loc, nil
}

func parsePoint(s string) (Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinate{}, ErrCoordinateFormat
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || math.IsNaN(lat) {
		return Coordinate{}, ErrCoordinateFormat
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || math.IsNaN(lng) {
		return Coordinate{}, ErrCoordinateFormat
	}
	return Coordinate{Lat: lat, Lng: lng}, nil
}
