package journey

import (
	"fmt"
	"time"
)

type ETAKind int

const (
	// ETAUnavailable: the journey is over (or not started), no further arrivals.
	ETAUnavailable ETAKind = iota
	ETAPassed
	ETAAtStop
	ETAEnRoute
)

func (k ETAKind) String() string {
	switch k {
	case ETAUnavailable:
		return "unavailable"
	case ETAPassed:
		return "passed"
	case ETAAtStop:
		return "at_stop"
	case ETAEnRoute:
		return "en_route"
	default:
		return fmt.Sprintf("ETAKind(%d)", int(k))
	}
}

func (k ETAKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ETAKind) UnmarshalText(b []byte) error {
	for _, kind := range []ETAKind{ETAUnavailable, ETAPassed, ETAAtStop, ETAEnRoute} {
		if kind.String() == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown ETA kind %q", string(b))
}

type ETA struct {
	Kind      ETAKind
	Remaining time.Duration // meaningful for ETAEnRoute only
}

// EstimateArrival returns the time until the vehicle reaches target,
// assuming the route does not change. The sum matches exactly what Tick
// would take: remaining time of the current interval, one travel per leg,
// and one dwell per intermediate waypoint the vehicle still has to stop at.
func (s *Simulator) EstimateArrival(now time.Time, target int) ETA {
	if !s.armed || s.phase == PhaseDone || target < 0 || target >= len(s.route) {
		return ETA{Kind: ETAUnavailable}
	}
	if target < s.current || (target == s.current && s.phase == PhaseMoving) {
		return ETA{Kind: ETAPassed}
	}
	if target == s.current {
		return ETA{Kind: ETAAtStop}
	}

	var total time.Duration
	var from int // next waypoint the vehicle will arrive at
	switch s.phase {
	case PhaseStopped:
		total = max(s.stopEndsAt.Sub(now), 0) + s.travel
		from = s.current + 1
	case PhaseMoving:
		total = max(s.travelStartAt.Add(s.travel).Sub(now), 0)
		from = s.next
	}
	for i := from; i < target; i++ {
		total += s.dwell + s.travel
	}
	return ETA{Kind: ETAEnRoute, Remaining: total}
}

// FormatETA renders an ETA for a status panel: "Ns" under a minute,
// "Mm Ss" otherwise. Partial seconds round up.
func FormatETA(e ETA) string {
	switch e.Kind {
	case ETAUnavailable:
		return "-"
	case ETAPassed:
		return "passed"
	case ETAAtStop:
		return "0s"
	}
	secs := int64((e.Remaining + time.Second - 1) / time.Second)
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}
