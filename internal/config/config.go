package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SourceDefault  = "default"
	SourceFile     = "file"
	SourceGTFS     = "gtfs"
	SourcePostgres = "postgres"
)

type Config struct {
	RouteSource  string
	RouteFile    string
	GTFSPath     string
	TripID       string
	DatabaseURL  string
	ReverseRoute bool

	TravelDuration time.Duration
	DwellDuration  time.Duration
	TickInterval   time.Duration
	Loop           bool

	NATSURL           string
	NATSSubjectPrefix string
	LogNATSSubjects   bool
	MetricsAddr       string
	CORSOrigins       []string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, so tests can supply a map.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := envReader{getenv: getenv}
	cfg := &Config{}

	cfg.RouteSource = strings.ToLower(env.withDefault("ROUTE_SOURCE", SourceDefault))
	switch cfg.RouteSource {
	case SourceDefault:
	case SourceFile:
		cfg.RouteFile = env.get("ROUTE_FILE")
		if cfg.RouteFile == "" {
			return nil, errors.New("ROUTE_FILE must be set when ROUTE_SOURCE=file")
		}
	case SourceGTFS:
		cfg.GTFSPath = env.get("GTFS_PATH")
		cfg.TripID = env.get("TRIP_ID")
		if cfg.GTFSPath == "" || cfg.TripID == "" {
			return nil, errors.New("GTFS_PATH and TRIP_ID must be set when ROUTE_SOURCE=gtfs")
		}
	case SourcePostgres:
		cfg.TripID = env.get("TRIP_ID")
		if cfg.TripID == "" {
			return nil, errors.New("TRIP_ID must be set when ROUTE_SOURCE=postgres")
		}
		dsn, err := databaseURL(env)
		if err != nil {
			return nil, err
		}
		cfg.DatabaseURL = dsn
	default:
		return nil, fmt.Errorf("invalid ROUTE_SOURCE: %q", cfg.RouteSource)
	}

	switch dir := strings.ToLower(env.withDefault("ROUTE_DIRECTION", "forward")); dir {
	case "forward":
	case "reverse":
		cfg.ReverseRoute = true
	default:
		return nil, fmt.Errorf("invalid ROUTE_DIRECTION: %q", dir)
	}

	var err error
	if cfg.TravelDuration, err = env.millis("TRAVEL_DURATION_MS", 9000, false); err != nil {
		return nil, err
	}
	if cfg.DwellDuration, err = env.millis("DWELL_DURATION_MS", 2500, true); err != nil {
		return nil, err
	}
	if cfg.TickInterval, err = env.millis("TICK_INTERVAL_MS", 100, false); err != nil {
		return nil, err
	}
	cfg.Loop = env.boolean("LOOP")

	cfg.NATSURL = env.withDefault("NATS_URL", "nats://127.0.0.1:4222")
	cfg.NATSSubjectPrefix = env.withDefault("NATS_SUBJECT_PREFIX", "journey")
	if strings.ContainsAny(cfg.NATSSubjectPrefix, " *>") {
		return nil, fmt.Errorf("invalid NATS_SUBJECT_PREFIX: %q", cfg.NATSSubjectPrefix)
	}
	// Debug logging for NATS publish subjects
	cfg.LogNATSSubjects = env.boolean("LOG_NATS_SUBJECTS")

	// Metrics listen address (e.g., ":9102"). Empty disables the HTTP server.
	cfg.MetricsAddr = env.get("METRICS_ADDR")
	for _, o := range strings.Split(env.withDefault("CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	return cfg, nil
}

// databaseURL prefers DATABASE_URL / PG_DSN, else builds a DSN from PG* vars.
func databaseURL(env envReader) (string, error) {
	if dsn := firstNonEmpty(env.get("DATABASE_URL"), env.get("PG_DSN")); dsn != "" {
		return dsn, nil
	}
	host := env.withDefault("PGHOST", "127.0.0.1")
	port := env.withDefault("PGPORT", "5432")
	user := env.withDefault("PGUSER", "postgres")
	pass := env.get("PGPASSWORD")
	db := env.get("PGDATABASE")
	if db == "" {
		return "", errors.New("PGDATABASE or DATABASE_URL must be set when ROUTE_SOURCE=postgres")
	}
	sslmode := env.withDefault("PGSSLMODE", "disable")
	if pass != "" {
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode), nil
	}
	return fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode), nil
}

type envReader struct {
	getenv func(string) string
}

func (e envReader) get(k string) string { return strings.TrimSpace(e.getenv(k)) }

func (e envReader) withDefault(k, def string) string {
	if v := e.get(k); v != "" {
		return v
	}
	return def
}

func (e envReader) millis(k string, def int, allowZero bool) (time.Duration, error) {
	v := e.get(k)
	if v == "" {
		return time.Duration(def) * time.Millisecond, nil
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms < 0 || (ms == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s: %q", k, v)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func (e envReader) boolean(k string) bool {
	switch strings.ToLower(e.get(k)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
