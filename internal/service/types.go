// Package service contains the field business logic for AgroMind.
package service

import (
	"errors"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/agromind/internal/geometry"
)

var (
	// ErrNotFound is returned when a field ID does not exist.
	ErrNotFound = errors.New("field not found")
	// ErrExists is returned when creating a field whose ID is taken.
	ErrExists = errors.New("field already exists")
)

// DefaultColor is the fill/stroke used when a field has no colour of its own.
const DefaultColor = "#4CAF50"

// Field is a user-managed land parcel.
// Huma reads the tags for OpenAPI docs and request validation.
type Field struct {
	ID          string            `json:"id,omitempty" doc:"Unique field identifier" example:"b7d0c7f2-5a55-4c9e-9f55-2b8e6c1a4f10"`
	Name        string            `json:"name" required:"true" minLength:"1" maxLength:"100" doc:"Display name" example:"North parcel"`
	Crop        string            `json:"crop,omitempty" maxLength:"100" doc:"Crop grown on the field" example:"wheat"`
	AreaHa      float64           `json:"areaHa,omitempty" minimum:"0" doc:"Declared area in hectares" example:"12.5"`
	Coordinates geometry.Location `json:"coordinates,omitempty" doc:"Field geometry"`
	Color       string            `json:"color,omitempty" doc:"Fill/stroke colour (CSS)" example:"#4CAF50"`
	CreatedAt   time.Time         `json:"createdAt,omitempty" readOnly:"true" doc:"Creation time"`
	UpdatedAt   time.Time         `json:"updatedAt,omitempty" readOnly:"true" doc:"Last update time"`
}

// DisplayColor returns the field colour or the default green.
func (f Field) DisplayColor() string {
	if f.Color == "" {
		return DefaultColor
	}
	return f.Color
}

// FieldShape pairs a field with its resolved shape.
type FieldShape struct {
	Field Field
	Shape geometry.Shape
}

// Feature renders the shape as a GeoJSON feature styled for the map.
func (fs FieldShape) Feature() *geojson.Feature {
	f := geometry.Feature(fs.Shape)
	f.ID = fs.Field.ID
	f.Properties["id"] = fs.Field.ID
	f.Properties["name"] = fs.Field.Name
	if fs.Field.Crop != "" {
		f.Properties["crop"] = fs.Field.Crop
	}
	color := fs.Field.DisplayColor()
	f.Properties["fill"] = color
	f.Properties["fill-opacity"] = 0.35
	f.Properties["stroke"] = color
	f.Properties["stroke-width"] = 2
	return f
}
