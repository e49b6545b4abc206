// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"database/sql"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/agromind/internal/humastar"
	"github.com/joeblew999/agromind/internal/service"
)

// Version is the API version reported by /health and /api/v1/info.
const Version = "0.1.0"

// Services holds the dependencies for API handlers.
type Services struct {
	Fields *service.FieldService
	// DB is the DuckDB connection behind the SQL console, nil for other drivers.
	DB      *sql.DB
	Driver  string
	DataDir string
}

// RegisterRoutes registers every REST route and the Link header transformer.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
	NewInfoHandler(svc).RegisterRoutes(api)
	if svc.DB != nil {
		NewDBHandler(svc.DB).RegisterRoutes(api)
	}
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Field ID" example:"b7d0c7f2-5a55-4c9e-9f55-2b8e6c1a4f10"`
}

type ListInput struct {
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Items to skip"`
	Limit  int `query:"limit" minimum:"1" maximum:"500" default:"50" doc:"Page size"`
}

// FieldBody is a field response carrying its state-dependent actions.
type FieldBody struct {
	service.Field
}

var (
	actionEdit     = humastar.ActionDef{Rel: "edit", Pattern: "/api/v1/fields/%s", Method: "PUT", Title: "Edit field"}
	actionDelete   = humastar.ActionDef{Rel: "delete", Pattern: "/api/v1/fields/%s", Method: "DELETE", Title: "Delete field"}
	actionGeometry = humastar.ActionDef{Rel: "geometry", Pattern: "/api/v1/fields/%s/geometry", Method: "GET", Title: "Field geometry"}
	actionRecenter = humastar.ActionDef{Rel: "recenter", Pattern: "/api/v1/fields/%s/recenter", Method: "POST", Title: "Center map on field"}
)

// Actions lists edit and delete, plus geometry and recenter when the field
// has coordinates.
func (b FieldBody) Actions() []humastar.Action {
	defs := []humastar.ActionDef{actionEdit, actionDelete}
	if len(b.Coordinates) > 0 {
		defs = append(defs, actionGeometry, actionRecenter)
	}
	return humastar.ActionsFor(b.ID, defs...)
}

type FieldOutput struct {
	Body FieldBody
}

type FieldsOutput struct {
	Body humastar.PageBody[service.Field]
}

type FieldInput struct {
	Body service.Field
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"0.1.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      "GET",
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"health"},
	}, h.GetHealth)
}

// RegisterFields registers field CRUD routes.
func (h *APIHandler) RegisterFields(api huma.API) {
	huma.Get(api, "/api/v1/fields", h.ListFields, huma.OperationTags("fields"))
	huma.Post(api, "/api/v1/fields", h.CreateField, huma.OperationTags("fields"), func(o *huma.Operation) {
		o.DefaultStatus = 201
	})
	huma.Get(api, "/api/v1/fields/{id}", h.GetField, huma.OperationTags("fields"))
	huma.Put(api, "/api/v1/fields/{id}", h.PutField, huma.OperationTags("fields"))
	huma.Delete(api, "/api/v1/fields/{id}", h.DeleteField, huma.OperationTags("fields"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) ListFields(ctx context.Context, input *ListInput) (*FieldsOutput, error) {
	fields, total, err := h.svc.Fields.List(ctx, input.Offset, input.Limit)
	if err != nil {
		return nil, httpError(err)
	}
	return &FieldsOutput{Body: humastar.NewPage(fields, total, input.Offset, input.Limit)}, nil
}

func (h *APIHandler) CreateField(ctx context.Context, input *FieldInput) (*FieldOutput, error) {
	created, err := h.svc.Fields.Create(ctx, input.Body)
	if err != nil {
		return nil, httpError(err)
	}
	return &FieldOutput{Body: FieldBody{created}}, nil
}

func (h *APIHandler) GetField(ctx context.Context, input *IDInput) (*FieldOutput, error) {
	f, err := h.svc.Fields.Get(ctx, input.ID)
	if err != nil {
		return nil, httpError(err)
	}
	return &FieldOutput{Body: FieldBody{f}}, nil
}

func (h *APIHandler) PutField(ctx context.Context, input *struct {
	IDInput
	Body service.Field
}) (*FieldOutput, error) {
	updated, err := h.svc.Fields.Update(ctx, input.ID, input.Body)
	if err != nil {
		return nil, httpError(err)
	}
	return &FieldOutput{Body: FieldBody{updated}}, nil
}

func (h *APIHandler) DeleteField(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Fields.Delete(ctx, input.ID); err != nil {
		return nil, httpError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Field deleted"}}, nil
}
