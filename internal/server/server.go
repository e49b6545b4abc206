// Package server wires configuration, storage, services and routes into the
// AgroMind HTTP server.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"go.uber.org/zap"

	"github.com/joeblew999/agromind/internal/api"
	"github.com/joeblew999/agromind/internal/api/mapview"
	"github.com/joeblew999/agromind/internal/config"
	"github.com/joeblew999/agromind/internal/db"
	"github.com/joeblew999/agromind/internal/logging"
	"github.com/joeblew999/agromind/internal/metrics"
	"github.com/joeblew999/agromind/internal/service"
	"github.com/joeblew999/agromind/internal/store"
	"github.com/joeblew999/agromind/internal/templates"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	App     *config.Config
	Logger  *zap.Logger
}

// Server is the AgroMind HTTP server.
type Server struct {
	config  Config
	mux     *http.ServeMux
	handler http.Handler
	humaAPI huma.API
	fields  *service.FieldService
	db      *sql.DB
	log     *zap.Logger
}

// New opens the configured field store and registers every route.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.App == nil {
		app, err := config.Load("")
		if err != nil {
			return nil, err
		}
		cfg.App = app
	}

	st, conn, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	fields := service.NewFieldService(st, service.NewEventBus(), service.Config{
		Fallback:     cfg.App.Map.Fallback(),
		RecenterZoom: cfg.App.Map.RecenterZoom,
		Logger:       cfg.Logger.Named("fields"),
	})

	renderer, err := templates.New()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load templates: %w", err)
	}
	if dir := cfg.App.Map.TemplatesDir; dir != "" {
		if err := renderer.Override(dir); err != nil {
			st.Close()
			return nil, fmt.Errorf("load templates from %s: %w", dir, err)
		}
	}

	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("AgroMind API", api.Version)
	humaConfig.Info.Description = "Field geometry API: field CRUD, shape resolution, map viewport, GeoJSON, vector tiles and live recentering."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humago.New(mux, humaConfig),
		fields:  fields,
		db:      conn,
		log:     cfg.Logger,
	}

	api.RegisterRoutes(s.humaAPI, &api.Services{
		Fields:  fields,
		DB:      conn,
		Driver:  cfg.App.Store.Driver,
		DataDir: cfg.DataDir,
	})
	mapview.NewHandler(fields, renderer, cfg.Logger).RegisterRoutes(s.humaAPI)

	mux.Handle("GET /metrics", metrics.Handler())

	s.handler = logging.Middleware(cfg.Logger.Named("http"))(metrics.Middleware(mux))
	return s, nil
}

// openStore selects the field store backend. The returned *sql.DB is set
// only for DuckDB, which also backs the SQL console.
func openStore(ctx context.Context, cfg Config) (service.Store, *sql.DB, error) {
	switch cfg.App.Store.Driver {
	case config.DriverDuckDB:
		conn, err := db.Open(db.Config{DataDir: cfg.DataDir, DBName: "agromind", Extensions: []string{"json"}})
		if err != nil {
			return nil, nil, err
		}
		st, err := store.NewDuckDB(ctx, conn)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		return st, conn, nil
	case config.DriverPostgres:
		st, err := store.NewPostgres(ctx, cfg.App.Store.DSN)
		return st, nil, err
	default:
		st, err := store.NewFile(cfg.DataDir)
		return st, nil, err
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Fields returns the field service.
func (s *Server) Fields() *service.FieldService { return s.fields }

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Close closes server resources.
func (s *Server) Close() error {
	return s.fields.Close()
}
