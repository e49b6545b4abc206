// Package config loads AgroMind domain settings: store backend, map
// defaults and logging. Server host/port/data-dir come from CLI options.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/joeblew999/agromind/internal/geometry"
)

// Store drivers.
const (
	DriverFile     = "file"
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// Config holds all domain configuration.
type Config struct {
	Store StoreConfig `mapstructure:"store"`
	Map   MapConfig   `mapstructure:"map"`
	Log   LogConfig   `mapstructure:"log"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type MapConfig struct {
	FallbackLat  float64 `mapstructure:"fallback_lat"`
	FallbackLng  float64 `mapstructure:"fallback_lng"`
	FallbackZoom int     `mapstructure:"fallback_zoom"`
	RecenterZoom int     `mapstructure:"recenter_zoom"`
	// TemplatesDir holds *.html fragments overriding the built-in popup.
	TemplatesDir string  `mapstructure:"templates_dir"`
}

// Fallback returns the viewport used when no field has coordinates.
func (m MapConfig) Fallback() geometry.Fallback {
	return geometry.Fallback{
		Center: geometry.Coordinate{Lat: m.FallbackLat, Lng: m.FallbackLng},
		Zoom:   m.FallbackZoom,
	}
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional file and AGROMIND_* environment
// variables. An empty path searches for agromind.yaml in . and ./configs.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("store.driver", DriverFile)
	v.SetDefault("store.dsn", "")
	v.SetDefault("map.fallback_lat", geometry.DefaultFallback.Center.Lat)
	v.SetDefault("map.fallback_lng", geometry.DefaultFallback.Center.Lng)
	v.SetDefault("map.fallback_zoom", geometry.DefaultFallback.Zoom)
	v.SetDefault("map.recenter_zoom", 15)
	v.SetDefault("map.templates_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("agromind")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // OK if missing
	}

	// AGROMIND_STORE_DRIVER → store.driver
	v.SetEnvPrefix("AGROMIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that configuration values are present and sane.
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Driver {
	case DriverFile, DriverDuckDB:
	case DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, "store.dsn is required for the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be file, duckdb or postgres, got %q", c.Store.Driver))
	}
	if !c.Map.Fallback().Center.InRange() {
		errs = append(errs, "map.fallback_lat/fallback_lng out of range")
	}
	if c.Map.FallbackZoom < 0 || c.Map.FallbackZoom > 22 {
		errs = append(errs, fmt.Sprintf("map.fallback_zoom must be 0-22, got %d", c.Map.FallbackZoom))
	}
	if c.Map.RecenterZoom < 0 || c.Map.RecenterZoom > 22 {
		errs = append(errs, fmt.Sprintf("map.recenter_zoom must be 0-22, got %d", c.Map.RecenterZoom))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
