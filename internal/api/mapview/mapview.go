// Package mapview contains the Datastar SSE handlers that drive the live map.
//
// Map clients hold open GET /api/v1/map/events. Recenter requests published
// on the field service bus arrive there as map signals plus the rendered
// field popup; field mutations arrive as a "field-changed" browser event so
// the client can refetch its features.
package mapview

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/joeblew999/agromind/internal/geometry"
	"github.com/joeblew999/agromind/internal/humastar"
	"github.com/joeblew999/agromind/internal/metrics"
	"github.com/joeblew999/agromind/internal/service"
	"github.com/joeblew999/agromind/internal/templates"
	"github.com/joeblew999/agromind/internal/tiles"
)

// PopupSelector is the element the field popup is patched into.
const PopupSelector = "#field-popup"

// Popup is the view model of the field-popup fragment.
type Popup struct {
	ID, Name, Crop, Color string
	AreaHa                float64
	Shape                 string
	ShapeAreaHa           float64
	Center                geometry.Coordinate
}

// NewPopup builds the popup view of a field.
func NewPopup(f service.Field) Popup {
	p := Popup{ID: f.ID, Name: f.Name, Crop: f.Crop, Color: f.DisplayColor(), AreaHa: f.AreaHa}
	if shape, ok := geometry.Resolve(f.Coordinates); ok {
		p.Shape = string(shape.Kind())
		p.ShapeAreaHa = geometry.AreaHectares(shape)
	}
	if c, ok := geometry.CenterOf(f.Coordinates); ok {
		p.Center = c
	}
	return p
}

// Handler serves the map event stream and recenter actions.
type Handler struct {
	humastar.Handler
	fields *service.FieldService
	log    *zap.Logger
}

// NewHandler creates a map handler.
func NewHandler(fields *service.FieldService, renderer *templates.Renderer, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Handler: humastar.Handler{Renderer: renderer},
		fields:  fields,
		log:     log.Named("mapview"),
	}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "map-events",
		Method:      "GET",
		Path:        "/api/v1/map/events",
		Summary:     "Stream map events",
		Description: "Datastar SSE stream of viewport, recenter and field change events.",
		Tags:        []string{"map"},
	}, h.Events)

	huma.Register(api, huma.Operation{
		OperationID: "map-recenter",
		Method:      "POST",
		Path:        "/api/v1/map/recenter",
		Summary:     "Recenter maps on a field",
		Description: "Reads the fieldid signal and asks every open map to center on that field.",
		Tags:        []string{"map"},
	}, h.Recenter)
}

// Events streams bus events until the client goes away.
func (h *Handler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	bus := h.fields.Bus()
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			ch := bus.Subscribe()
			defer bus.Unsubscribe(ch)
			metrics.MapSubscribers.Inc()
			defer metrics.MapSubscribers.Dec()

			reqCtx := humaCtx.Context()
			sse := humastar.NewSSE(humaCtx)
			if vp, err := h.fields.Viewport(reqCtx); err == nil {
				sse.Signals(viewportSignals(vp))
			}

			for {
				select {
				case <-reqCtx.Done():
					return
				case ev := <-ch:
					h.send(reqCtx, sse, ev)
				}
			}
		},
	}, nil
}

func (h *Handler) send(ctx context.Context, sse humastar.SSE, ev service.Event) {
	switch ev.Resource {
	case service.ResourceRecenter:
		sse.Signals(recenterSignals(ev))
		f, err := h.fields.Get(ctx, ev.ID)
		if errors.Is(err, service.ErrNotFound) {
			sse.Patch(h.Render("empty-state", map[string]string{
				"Title":   "Field removed",
				"Message": "This field no longer exists.",
			}), PopupSelector)
			return
		}
		if err != nil {
			h.log.Warn("popup field lookup failed", zap.String("id", ev.ID), zap.Error(err))
			return
		}
		sse.Patch(h.Render("field-popup", NewPopup(f)), PopupSelector)
	case service.ResourceFields:
		sse.DispatchCustomEvent("field-changed", map[string]any{
			"action": ev.Action,
			"id":     ev.ID,
		})
	}
}

// Recenter handles the Datastar recenter action.
func (h *Handler) Recenter(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	id := signals.String("fieldid")
	zoom := 0
	if signals.Has("recenterzoom") {
		zoom = signals.Int("recenterzoom")
	}

	return h.Stream(func(sse humastar.SSE) {
		if id == "" {
			sse.Error("fieldid is required")
			return
		}
		if signals.Has("recenterzoom") && (zoom < 1 || zoom > tiles.MaxZoom) {
			sse.Error(fmt.Sprintf("recenterzoom must be between 1 and %d", tiles.MaxZoom))
			return
		}
		ev, err := h.fields.RecenterAt(ctx, id, zoom)
		switch {
		case errors.Is(err, service.ErrNotFound):
			sse.Error("Field not found")
		case errors.Is(err, service.ErrNoGeometry):
			sse.Error("Field has no coordinates")
		case err != nil:
			h.log.Error("recenter failed", zap.String("id", id), zap.Error(err))
			sse.Error("Recenter failed")
		default:
			sse.Signals(recenterSignals(ev))
			sse.Success(fmt.Sprintf("Centered on %s", ev.Center))
		}
	}), nil
}

func recenterSignals(ev service.Event) map[string]any {
	return map[string]any{
		"mapcenterlat":  ev.Center.Lat,
		"mapcenterlng":  ev.Center.Lng,
		"mapzoom":       ev.Zoom,
		"selectedfield": ev.ID,
	}
}

func viewportSignals(vp geometry.Viewport) map[string]any {
	signals := map[string]any{
		"mapcenterlat": vp.Center.Lat,
		"mapcenterlng": vp.Center.Lng,
	}
	if vp.Fit() {
		signals["mapbounds"] = []float64{vp.Bounds.MinLng, vp.Bounds.MinLat, vp.Bounds.MaxLng, vp.Bounds.MaxLat}
	} else {
		signals["mapzoom"] = vp.Zoom
	}
	return signals
}
