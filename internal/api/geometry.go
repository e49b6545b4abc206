package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/agromind/internal/geometry"
)

// GeometryBody describes a resolved shape. Everything but HasGeometry is
// omitted when the location has no coordinates.
type GeometryBody struct {
	ID          string               `json:"id,omitempty" doc:"Field ID"`
	HasGeometry bool                 `json:"hasGeometry" doc:"Whether the location resolves to a shape"`
	Shape       string               `json:"shape,omitempty" enum:"circle,polygon" doc:"Resolved shape kind"`
	Center      *geometry.Coordinate `json:"center,omitempty" doc:"Centre used to recenter the map (arithmetic mean)"`
	Centroid    *geometry.Coordinate `json:"centroid,omitempty" doc:"Area-weighted centroid"`
	AreaHa      float64              `json:"areaHa,omitempty" doc:"Geodesic area of the drawn shape in hectares"`
	Feature     *geojson.Feature     `json:"feature,omitempty" doc:"Shape as a GeoJSON polygon feature"`
}

func describe(loc geometry.Location) GeometryBody {
	shape, ok := geometry.Resolve(loc)
	if !ok {
		return GeometryBody{}
	}
	center, _ := geometry.CenterOf(loc)
	centroid, _ := geometry.Centroid(loc)
	return GeometryBody{
		HasGeometry: true,
		Shape:       string(shape.Kind()),
		Center:      &center,
		Centroid:    &centroid,
		AreaHa:      geometry.AreaHectares(shape),
		Feature:     geometry.Feature(shape),
	}
}

type GeometryOutput struct {
	Body GeometryBody
}

type ResolveInput struct {
	Body struct {
		Coordinates geometry.Location `json:"coordinates,omitempty" doc:"Location to resolve"`
	}
}

type ParseInput struct {
	Body struct {
		Text string `json:"text" doc:"Coordinates as lat,lng pairs separated by ';' or newlines" example:"44.31,23.79; 44.32,23.80"`
	}
}

type ParseBody struct {
	Coordinates geometry.Location `json:"coordinates" doc:"Parsed coordinates, null when the text is empty"`
	Count       int               `json:"count" doc:"Number of coordinates"`
}

type RecenterBody struct {
	ID     string              `json:"id" doc:"Field ID"`
	Center geometry.Coordinate `json:"center" doc:"Map centre"`
	Zoom   int                 `json:"zoom" doc:"Map zoom"`
}

// RegisterGeometry registers shape resolution routes.
func (h *APIHandler) RegisterGeometry(api huma.API) {
	huma.Get(api, "/api/v1/fields/{id}/geometry", h.GetFieldGeometry, huma.OperationTags("geometry"))
	huma.Post(api, "/api/v1/fields/{id}/recenter", h.RecenterField, huma.OperationTags("map"))
	huma.Post(api, "/api/v1/geometry/resolve", h.ResolveGeometry, huma.OperationTags("geometry"))
	huma.Post(api, "/api/v1/coordinates/parse", h.ParseCoordinates, huma.OperationTags("geometry"))
}

func (h *APIHandler) GetFieldGeometry(ctx context.Context, input *IDInput) (*GeometryOutput, error) {
	f, err := h.svc.Fields.Get(ctx, input.ID)
	if err != nil {
		return nil, httpError(err)
	}
	body := describe(f.Coordinates)
	body.ID = f.ID
	if body.Feature != nil {
		body.Feature.ID = f.ID
	}
	return &GeometryOutput{Body: body}, nil
}

func (h *APIHandler) RecenterField(ctx context.Context, input *IDInput) (*struct{ Body RecenterBody }, error) {
	ev, err := h.svc.Fields.Recenter(ctx, input.ID)
	if err != nil {
		return nil, httpError(err)
	}
	return &struct{ Body RecenterBody }{Body: RecenterBody{ID: ev.ID, Center: ev.Center, Zoom: ev.Zoom}}, nil
}

func (h *APIHandler) ResolveGeometry(ctx context.Context, input *ResolveInput) (*GeometryOutput, error) {
	if err := input.Body.Coordinates.Validate(); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	return &GeometryOutput{Body: describe(input.Body.Coordinates)}, nil
}

func (h *APIHandler) ParseCoordinates(ctx context.Context, input *ParseInput) (*struct{ Body ParseBody }, error) {
	loc, err := geometry.ParseCoordinates(input.Body.Text)
	if err != nil {
		return nil, httpError(err)
	}
	if err := loc.Validate(); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	return &struct{ Body ParseBody }{Body: ParseBody{Coordinates: loc, Count: len(loc)}}, nil
}
