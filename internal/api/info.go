package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	driver  string
	dataDir string
	sql     bool
}

func NewInfoHandler(svc *Services) *InfoHandler {
	return &InfoHandler{driver: svc.Driver, dataDir: svc.DataDir, sql: svc.DB != nil}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	Store    string   `json:"store" doc:"Field store driver" enum:"file,duckdb,postgres"`
	DataDir  string   `json:"data_dir" doc:"Data directory path"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	features := []string{"geojson", "mvt", "viewport", "recenter-sse"}
	if h.sql {
		features = append(features, "sql")
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "agromind",
		Version:  Version,
		Store:    h.driver,
		DataDir:  h.dataDir,
		Features: features,
	}}, nil
}
