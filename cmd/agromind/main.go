package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/agromind/internal/config"
	"github.com/joeblew999/agromind/internal/geometry"
	"github.com/joeblew999/agromind/internal/logging"
	"github.com/joeblew999/agromind/internal/server"
	"github.com/joeblew999/agromind/internal/tiles"
)

// Options defines all CLI flags and env vars for the server.
// Flags: --host, --port, --data-dir, --config
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_CONFIG
type Options struct {
	Host    string `doc:"Host to bind to" default:"0.0.0.0"`
	Port    int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir string `doc:"Directory for field data" default:".data"`
	Config  string `doc:"Path to agromind.yaml (default: search . and ./configs)"`
}

func newServer(ctx context.Context, opts *Options) (*server.Server, *zap.Logger, error) {
	app, err := config.Load(opts.Config)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(app.Log.Level, app.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	srv, err := server.New(ctx, server.Config{
		Host:    opts.Host,
		Port:    fmt.Sprintf("%d", opts.Port),
		DataDir: opts.DataDir,
		App:     app,
		Logger:  log,
	})
	if err != nil {
		return nil, nil, err
	}
	return srv, log, nil
}

// withServer builds a server for a one-shot command and closes it once fn
// returns, whatever the outcome.
func withServer(ctx context.Context, opts *Options, fn func(*server.Server) error) error {
	srv, log, err := newServer(ctx, opts)
	if err != nil {
		return err
	}
	defer log.Sync()
	return runClosing(srv, fn)
}

func runClosing(srv *server.Server, fn func(*server.Server) error) error {
	err := fn(srv)
	if cerr := srv.Close(); err == nil {
		err = cerr
	}
	return err
}

func writeSpec(w io.Writer, srv *server.Server, useYAML bool) error {
	var (
		output []byte
		err    error
	)
	if useYAML {
		output, err = yaml.Marshal(srv.OpenAPI())
	} else {
		output, err = json.MarshalIndent(srv.OpenAPI(), "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal spec: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

// exportArchive writes every field tile to out. A failed export leaves no file.
func exportArchive(ctx context.Context, srv *server.Server, out string, minZoom, maxZoom int) (int, int, error) {
	shapes, err := srv.Fields().Shapes(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("load fields: %w", err)
	}
	f, err := os.Create(out)
	if err != nil {
		return 0, 0, err
	}
	n, err := tiles.Archive(f, shapes, minZoom, maxZoom)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(out)
		return 0, 0, fmt.Errorf("export tiles: %w", err)
	}
	return n, len(shapes), nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	var (
		httpServer *http.Server
		srv        *server.Server
		log        *zap.Logger
	)

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		hooks.OnStart(func() {
			var err error
			srv, log, err = newServer(context.Background(), opts)
			if err != nil {
				fatal("Startup error: %v", err)
			}

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			log.Info("agromind API server starting",
				zap.String("addr", addr),
				zap.String("data_dir", opts.DataDir),
				zap.String("docs", baseURL+"/docs"),
				zap.String("openapi", baseURL+"/openapi.json"),
				zap.String("metrics", baseURL+"/metrics"),
			)

			httpServer = &http.Server{Addr: addr, Handler: srv, ReadHeaderTimeout: 10 * time.Second}
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal("server error", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			if httpServer == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				log.Warn("shutdown", zap.Error(err))
			}
			if err := srv.Close(); err != nil {
				log.Warn("close store", zap.Error(err))
			}
			_ = log.Sync()
		})
	})

	cli.Root().Use = "agromind"
	cli.Root().Short = "Field geometry service for AgroMind maps"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			useYAML, _ := cmd.Flags().GetBool("yaml")
			err := withServer(cmd.Context(), opts, func(srv *server.Server) error {
				return writeSpec(os.Stdout, srv, useYAML)
			})
			if err != nil {
				fatal("Error: %v", err)
			}
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// resolve subcommand: print the shape a coordinate list draws
	resolveCmd := &cobra.Command{
		Use:     "resolve <lat,lng; lat,lng ...>",
		Short:   "Resolve coordinates to the drawn shape as GeoJSON",
		Example: `  agromind resolve "44.31,23.79; 44.32,23.80; 44.32,23.79"`,
		Args:    cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			loc, err := geometry.ParseCoordinates(strings.Join(args, ";"))
			if err != nil {
				fatal("Error: %v", err)
			}
			shape, ok := geometry.Resolve(loc)
			if !ok {
				fatal("Error: no coordinates given")
			}
			f := geometry.Feature(shape)
			if c, ok := geometry.CenterOf(loc); ok {
				f.Properties["mapCenter"] = []float64{c.Lng, c.Lat}
			}
			f.Properties["areaHa"] = geometry.AreaHectares(shape)

			output, err := json.MarshalIndent(f, "", "  ")
			if err != nil {
				fatal("Error marshaling feature: %v", err)
			}
			fmt.Println(string(output))
		},
	}
	cli.Root().AddCommand(resolveCmd)

	// export subcommand: write every field tile to a PMTiles archive
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export field vector tiles to a PMTiles archive",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			out, _ := cmd.Flags().GetString("out")
			minZoom, _ := cmd.Flags().GetInt("min-zoom")
			maxZoom, _ := cmd.Flags().GetInt("max-zoom")

			err := withServer(cmd.Context(), opts, func(srv *server.Server) error {
				n, fields, err := exportArchive(cmd.Context(), srv, out, minZoom, maxZoom)
				if err != nil {
					return err
				}
				fmt.Printf("Wrote %d tiles for %d fields to %s\n", n, fields, out)
				return nil
			})
			if err != nil {
				fatal("Error: %v", err)
			}
		}),
	}
	exportCmd.Flags().StringP("out", "o", "fields.pmtiles", "Output archive path")
	exportCmd.Flags().Int("min-zoom", 10, "Minimum zoom")
	exportCmd.Flags().Int("max-zoom", 16, "Maximum zoom")
	cli.Root().AddCommand(exportCmd)

	cli.Run()
}
