package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/agromind/internal/geometry"
	"github.com/joeblew999/agromind/internal/service"
)

// httpError maps service and geometry errors onto Huma status errors.
func httpError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, service.ErrExists):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, geometry.ErrCoordinateFormat):
		return huma.Error422UnprocessableEntity(geometry.ErrCoordinateFormat.Error())
	case errors.Is(err, service.ErrInvalid), errors.Is(err, service.ErrNoGeometry):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		return huma.Error500InternalServerError("internal error", err)
	}
}
