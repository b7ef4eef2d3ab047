package routes

import (
	"fmt"
	"os"
	"slices"

	"github.com/jamespfennell/gtfs"

	"journey-simulator/internal/journey"
)

// LoadGTFS builds a route from the stop times of tripID in a static GTFS zip.
func LoadGTFS(path, tripID string) (journey.Route, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading local GTFS file: %w", err)
	}
	static, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("error parsing GTFS data: %w", err)
	}
	return tripRoute(static, tripID)
}

func tripRoute(static *gtfs.Static, tripID string) (journey.Route, error) {
	for i := range static.Trips {
		trip := &static.Trips[i]
		if trip.ID != tripID {
			continue
		}
		stopTimes := slices.Clone(trip.StopTimes)
		slices.SortStableFunc(stopTimes, func(a, b gtfs.ScheduledStopTime) int {
			return a.StopSequence - b.StopSequence
		})
		var route journey.Route
		for _, st := range stopTimes {
			stop := st.Stop
			// Walk up to the parent station when the platform has no position
			for stop != nil && (stop.Latitude == nil || stop.Longitude == nil) {
				stop = stop.Parent
			}
			if stop == nil {
				continue
			}
			name := stop.Name
			if name == "" {
				name = stop.Id
			}
			route = append(route, journey.Waypoint{Name: name, Lat: *stop.Latitude, Lng: *stop.Longitude})
		}
		if err := route.Validate(); err != nil {
			return nil, fmt.Errorf("trip %s: %w", tripID, err)
		}
		return route, nil
	}
	return nil, fmt.Errorf("trip %q not found in GTFS feed", tripID)
}
