package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, SourceDefault, cfg.RouteSource)
	assert.False(t, cfg.ReverseRoute)
	assert.Equal(t, 9*time.Second, cfg.TravelDuration)
	assert.Equal(t, 2500*time.Millisecond, cfg.DwellDuration)
	assert.Equal(t, 100*time.Millisecond, cfg.TickInterval)
	assert.False(t, cfg.Loop)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATSURL)
	assert.Equal(t, "journey", cfg.NATSSubjectPrefix)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestDurationsAndFlags(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"TRAVEL_DURATION_MS": "1000",
		"DWELL_DURATION_MS":  "0",
		"TICK_INTERVAL_MS":   "50",
		"LOOP":               "yes",
		"ROUTE_DIRECTION":    "Reverse",
		"LOG_NATS_SUBJECTS":  "on",
		"METRICS_ADDR":       ":9102",
		"CORS_ORIGINS":       "http://localhost:5173, https://map.example.org",
	}))
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.TravelDuration)
	assert.Zero(t, cfg.DwellDuration)
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval)
	assert.True(t, cfg.Loop)
	assert.True(t, cfg.ReverseRoute)
	assert.True(t, cfg.LogNATSSubjects)
	assert.Equal(t, ":9102", cfg.MetricsAddr)
	assert.Equal(t, []string{"http://localhost:5173", "https://map.example.org"}, cfg.CORSOrigins)
}

func TestInvalidValues(t *testing.T) {
	cases := []map[string]string{
		{"TRAVEL_DURATION_MS": "0"},
		{"TRAVEL_DURATION_MS": "fast"},
		{"DWELL_DURATION_MS": "-1"},
		{"TICK_INTERVAL_MS": "0"},
		{"ROUTE_DIRECTION": "sideways"},
		{"ROUTE_SOURCE": "kafka"},
		{"ROUTE_SOURCE": "file"},
		{"ROUTE_SOURCE": "gtfs", "GTFS_PATH": "feed.zip"},
		{"ROUTE_SOURCE": "postgres", "TRIP_ID": "t1"},
		{"NATS_SUBJECT_PREFIX": "journey.>"},
	}
	for _, env := range cases {
		_, err := FromEnv(envMap(env))
		assert.Error(t, err, "%v", env)
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"ROUTE_SOURCE": "postgres",
		"TRIP_ID":      "trip-1",
		"PGHOST":       "db",
		"PGUSER":       "sim",
		"PGPASSWORD":   "p@ss:word",
		"PGDATABASE":   "gtfs",
	}))
	require.NoError(t, err)
	assert.Equal(t, "postgres://sim:p%40ss%3Aword@db:5432/gtfs?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, "trip-1", cfg.TripID)

	cfg, err = FromEnv(envMap(map[string]string{
		"ROUTE_SOURCE": "postgres",
		"TRIP_ID":      "trip-1",
		"DATABASE_URL": "postgres://u@h/db",
	}))
	require.NoError(t, err)
	assert.Equal(t, "postgres://u@h/db", cfg.DatabaseURL)
}

func TestRouteSources(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"ROUTE_SOURCE": "FILE", "ROUTE_FILE": "routes/southern.yaml"}))
	require.NoError(t, err)
	assert.Equal(t, SourceFile, cfg.RouteSource)
	assert.Equal(t, "routes/southern.yaml", cfg.RouteFile)

	cfg, err = FromEnv(envMap(map[string]string{"ROUTE_SOURCE": "gtfs", "GTFS_PATH": "feed.zip", "TRIP_ID": "T1"}))
	require.NoError(t, err)
	assert.Equal(t, "feed.zip", cfg.GTFSPath)
	assert.Equal(t, "T1", cfg.TripID)
}
