package api

import (
	"context"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"

	"github.com/joeblew999/agromind/internal/geometry"
	"github.com/joeblew999/agromind/internal/tiles"
)

type FeaturesOutput struct {
	Body *geojson.FeatureCollection
}

// ViewportBody tells the map to fit Bounds, or to sit at Center and Zoom.
type ViewportBody struct {
	Fit    bool                `json:"fit" doc:"Fit the map to bounds"`
	Bounds *geometry.Bounds    `json:"bounds,omitempty" doc:"Rectangle enclosing every field"`
	Center geometry.Coordinate `json:"center" doc:"Centre of the bounds or the fallback centre"`
	Zoom   int                 `json:"zoom,omitempty" doc:"Fallback zoom, set when fit is false"`
}

type TileInput struct {
	Z int    `path:"z" minimum:"0" maximum:"22" doc:"Zoom"`
	X int    `path:"x" minimum:"0" doc:"Column"`
	Y string `path:"y" doc:"Row, optionally suffixed .mvt or .pbf" example:"2893.mvt"`
}

type TileOutput struct {
	Status          int
	ContentType     string `header:"Content-Type"`
	ContentEncoding string `header:"Content-Encoding"`
	Body            []byte
}

// RegisterMap registers map feature, viewport and tile routes.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/map/features", h.GetFeatures, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/map/viewport", h.GetViewport, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/map/tiles/{z}/{x}/{y}", h.GetTile, huma.OperationTags("map"))
}

func (h *APIHandler) GetFeatures(ctx context.Context, input *struct{}) (*FeaturesOutput, error) {
	shapes, err := h.svc.Fields.Shapes(ctx)
	if err != nil {
		return nil, httpError(err)
	}
	fc := geojson.NewFeatureCollection()
	for _, fs := range shapes {
		fc.Append(fs.Feature())
	}
	return &FeaturesOutput{Body: fc}, nil
}

func (h *APIHandler) GetViewport(ctx context.Context, input *struct{}) (*struct{ Body ViewportBody }, error) {
	vp, err := h.svc.Fields.Viewport(ctx)
	if err != nil {
		return nil, httpError(err)
	}
	body := ViewportBody{Fit: vp.Fit(), Bounds: vp.Bounds, Center: vp.Center}
	if !vp.Fit() {
		body.Zoom = vp.Zoom
	}
	return &struct{ Body ViewportBody }{Body: body}, nil
}

func (h *APIHandler) GetTile(ctx context.Context, input *TileInput) (*TileOutput, error) {
	y, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSuffix(input.Y, ".mvt"), ".pbf"))
	if err != nil || !tiles.Valid(input.Z, input.X, y) {
		return nil, huma.Error404NotFound("tile not found")
	}

	shapes, err := h.svc.Fields.Shapes(ctx)
	if err != nil {
		return nil, httpError(err)
	}
	data, err := tiles.Encode(maptile.New(uint32(input.X), uint32(y), maptile.Zoom(input.Z)), shapes)
	if err != nil {
		return nil, huma.Error500InternalServerError("tile encoding failed", err)
	}
	if data == nil {
		return &TileOutput{Status: 204}, nil
	}
	return &TileOutput{
		Status:          200,
		ContentType:     "application/vnd.mapbox-vector-tile",
		ContentEncoding: "gzip",
		Body:            data,
	}, nil
}
