package journey

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidRoute    = errors.New("invalid route")
	ErrIndexOutOfRange = errors.New("waypoint index out of range")
)

// Waypoint is a named stop the vehicle visits in route order.
type Waypoint struct {
	Name string  `json:"name" yaml:"name"`
	Lat  float64 `json:"lat" yaml:"lat"`
	Lng  float64 `json:"lng" yaml:"lng"`
}

// LatLng is a bare coordinate pair, used for interpolated positions.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (w Waypoint) LatLng() LatLng { return LatLng{Lat: w.Lat, Lng: w.Lng} }

// Route is an ordered sequence of waypoints. Order defines direction of travel.
type Route []Waypoint

// Reverse returns the opposite-direction route. The receiver is not modified.
func (r Route) Reverse() Route {
	out := make(Route, len(r))
	for i, w := range r {
		out[len(r)-1-i] = w
	}
	return out
}

// Clone returns a copy that shares no backing array with r.
func (r Route) Clone() Route {
	out := make(Route, len(r))
	copy(out, r)
	return out
}

func (r Route) Validate() error {
	if len(r) < 2 {
		return fmt.Errorf("%w: need at least 2 waypoints, got %d", ErrInvalidRoute, len(r))
	}
	for i, w := range r {
		if math.IsNaN(w.Lat) || math.IsNaN(w.Lng) || math.IsInf(w.Lat, 0) || math.IsInf(w.Lng, 0) {
			return fmt.Errorf("%w: waypoint %d (%q) has non-finite coordinates", ErrInvalidRoute, i, w.Name)
		}
		if w.Lat < -90 || w.Lat > 90 || w.Lng < -180 || w.Lng > 180 {
			return fmt.Errorf("%w: waypoint %d (%q) out of bounds (%.6f, %.6f)", ErrInvalidRoute, i, w.Name, w.Lat, w.Lng)
		}
	}
	return nil
}

// Interpolate linearly blends a and b at parameter t, latitude and longitude independently.
func Interpolate(a, b Waypoint, t float64) LatLng {
	return LatLng{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lng: a.Lng + (b.Lng-a.Lng)*t,
	}
}
