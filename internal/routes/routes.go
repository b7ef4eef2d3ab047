// Package routes loads journey routes from the built-in line, YAML/JSON
// route files, static GTFS feeds and the Postgres GTFS schema.
package routes

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"journey-simulator/internal/config"
	"journey-simulator/internal/db"
	"journey-simulator/internal/journey"
)

//go:embed southern_line.yaml
var southernLine []byte

type File struct {
	Name      string             `yaml:"name"`
	Waypoints []journey.Waypoint `yaml:"waypoints"`
}

// Default returns the built-in Cape Town southern line.
func Default() journey.Route {
	f, err := Parse(southernLine)
	if err != nil {
		panic(fmt.Sprintf("routes: built-in route: %v", err))
	}
	return f.Waypoints
}

// Parse decodes a route document. JSON documents are accepted as YAML.
func Parse(b []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode route: %w", err)
	}
	if err := journey.Route(f.Waypoints).Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func LoadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route file: %w", err)
	}
	f, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Resolve loads the route selected by cfg and applies the configured direction.
func Resolve(ctx context.Context, cfg *config.Config) (journey.Route, error) {
	var route journey.Route
	switch cfg.RouteSource {
	case config.SourceDefault:
		route = Default()
	case config.SourceFile:
		f, err := LoadFile(cfg.RouteFile)
		if err != nil {
			return nil, err
		}
		log.Printf("loaded route %q (%d waypoints) from %s", f.Name, len(f.Waypoints), cfg.RouteFile)
		route = f.Waypoints
	case config.SourceGTFS:
		r, err := LoadGTFS(cfg.GTFSPath, cfg.TripID)
		if err != nil {
			return nil, err
		}
		route = r
	case config.SourcePostgres:
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		defer conn.Close()
		if err := db.Ping(ctx, conn); err != nil {
			return nil, fmt.Errorf("db ping: %w", err)
		}
		r, err := db.LoadRoute(ctx, conn, cfg.TripID)
		if err != nil {
			return nil, err
		}
		route = r
	default:
		return nil, fmt.Errorf("unknown route source %q", cfg.RouteSource)
	}
	if cfg.ReverseRoute {
		route = route.Reverse()
	}
	return route, nil
}
