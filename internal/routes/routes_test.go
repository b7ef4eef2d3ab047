package routes

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jamespfennell/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journey-simulator/internal/config"
	"journey-simulator/internal/journey"
)

func TestDefault(t *testing.T) {
	r := Default()
	require.Len(t, r, 9)
	assert.Equal(t, journey.Waypoint{Name: "Cape Town", Lat: -33.9253, Lng: 18.4246}, r[0])
	assert.Equal(t, "Woodstock", r[1].Name)
	assert.Equal(t, "Claremont", r[8].Name)
	assert.NoError(t, r.Validate())
}

func TestLoadFile(t *testing.T) {
	f, err := LoadFile(filepath.Join("testdata", "atlantis.json"))
	require.NoError(t, err)
	assert.Equal(t, "Atlantis Shuttle", f.Name)
	require.Len(t, f.Waypoints, 3)
	assert.Equal(t, "Kraaifontein", f.Waypoints[1].Name)

	_, err = LoadFile(filepath.Join("testdata", "short.yaml"))
	assert.ErrorIs(t, err, journey.ErrInvalidRoute)

	_, err = LoadFile(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("name: X\nstations: []\n"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	r, err := Resolve(context.Background(), &config.Config{RouteSource: config.SourceDefault, ReverseRoute: true})
	require.NoError(t, err)
	assert.Equal(t, "Claremont", r[0].Name)
	assert.Equal(t, "Cape Town", r[len(r)-1].Name)

	r, err = Resolve(context.Background(), &config.Config{
		RouteSource: config.SourceFile,
		RouteFile:   filepath.Join("testdata", "atlantis.json"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Bellville", r[0].Name)

	_, err = Resolve(context.Background(), &config.Config{RouteSource: "carrier-pigeon"})
	assert.Error(t, err)
}

func ptr(f float64) *float64 { return &f }

func TestTripRoute(t *testing.T) {
	station := &gtfs.Stop{Id: "SR", Name: "Salt River", Latitude: ptr(-33.9277), Longitude: ptr(18.4644)}
	static := &gtfs.Static{
		Trips: []gtfs.ScheduledTrip{
			{ID: "other"},
			{
				ID: "T1",
				StopTimes: []gtfs.ScheduledStopTime{
					{StopSequence: 3, Stop: &gtfs.Stop{Id: "SR-1", Parent: station}},
					{StopSequence: 1, Stop: &gtfs.Stop{Id: "CT", Name: "Cape Town", Latitude: ptr(-33.9253), Longitude: ptr(18.4246)}},
					{StopSequence: 2, Stop: &gtfs.Stop{Id: "WS", Latitude: ptr(-33.9286), Longitude: ptr(18.4486)}},
					{StopSequence: 4, Stop: &gtfs.Stop{Id: "GHOST"}},
				},
			},
		},
	}

	r, err := tripRoute(static, "T1")
	require.NoError(t, err)
	assert.Equal(t, journey.Route{
		{Name: "Cape Town", Lat: -33.9253, Lng: 18.4246},
		{Name: "WS", Lat: -33.9286, Lng: 18.4486},
		{Name: "Salt River", Lat: -33.9277, Lng: 18.4644},
	}, r)

	_, err = tripRoute(static, "other")
	assert.ErrorIs(t, err, journey.ErrInvalidRoute)

	_, err = tripRoute(static, "nope")
	assert.Error(t, err)
}
