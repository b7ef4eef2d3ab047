package journey

import (
	"fmt"
	"time"
)

// Observer is notified each time the vehicle snaps onto a waypoint.
// at is the boundary time of the arrival, which may be earlier than the
// tick that detected it.
type Observer interface {
	Arrived(at time.Time, s Status)
}

type Config struct {
	Route          Route
	TravelDuration time.Duration // time to traverse one leg
	DwellDuration  time.Duration // pause at each non-terminal waypoint
	TickInterval   time.Duration // advisory; the simulator never reads a clock
	Observer       Observer
}

// Status is a read-only snapshot of the journey for renderers.
type Status struct {
	Phase         Phase   `json:"phase"`
	CurrentIndex  int     `json:"currentIndex"`
	CurrentName   string  `json:"currentName"`
	NextIndex     int     `json:"nextIndex"`
	NextName      string  `json:"nextName"`
	Position      LatLng  `json:"position"`
	Progress      float64 `json:"progress"`
	SelectedIndex int     `json:"selectedIndex"`
	SelectedName  string  `json:"selectedName"`
	Tracking      bool    `json:"tracking"`
}

// Simulator advances one vehicle along a route. It is not safe for
// concurrent use: a single goroutine must own it and drive Tick.
type Simulator struct {
	route        Route
	travel       time.Duration
	dwell        time.Duration
	tickInterval time.Duration
	observer     Observer

	current       int
	next          int
	phase         Phase
	armed         bool // timers set by Arrive; cleared by SetRoute
	travelStartAt time.Time
	stopEndsAt    time.Time
	position      LatLng
	progress      float64

	selected int
	tracking bool
}

func New(cfg Config) (*Simulator, error) {
	if err := cfg.Route.Validate(); err != nil {
		return nil, err
	}
	if cfg.TravelDuration <= 0 {
		return nil, fmt.Errorf("travel duration must be positive, got %s", cfg.TravelDuration)
	}
	if cfg.DwellDuration < 0 {
		return nil, fmt.Errorf("dwell duration must not be negative, got %s", cfg.DwellDuration)
	}
	if cfg.TickInterval < 0 {
		return nil, fmt.Errorf("tick interval must not be negative, got %s", cfg.TickInterval)
	}
	s := &Simulator{
		route:        cfg.Route.Clone(),
		travel:       cfg.TravelDuration,
		dwell:        cfg.DwellDuration,
		tickInterval: cfg.TickInterval,
		observer:     cfg.Observer,
	}
	s.reset()
	return s, nil
}

func (s *Simulator) reset() {
	s.current = 0
	s.next = 1
	s.phase = PhaseStopped
	s.armed = false
	s.travelStartAt = time.Time{}
	s.stopEndsAt = time.Time{}
	s.position = s.route[0].LatLng()
	s.progress = 0
	s.selected = 0
}

// Start begins a run at the first waypoint. With zero dwell the vehicle
// departs within the same call.
func (s *Simulator) Start(now time.Time) {
	s.Arrive(0, now)
	s.Tick(now)
}

// Arrive snaps the vehicle onto route[index]. Arriving at the last index
// ends the journey; after that Arrive and Tick are no-ops.
// An index outside the route is a programming error and panics.
func (s *Simulator) Arrive(index int, now time.Time) {
	if index < 0 || index >= len(s.route) {
		panic(fmt.Sprintf("journey: Arrive(%d) outside route of %d waypoints", index, len(s.route)))
	}
	if s.phase == PhaseDone {
		return
	}
	last := len(s.route) - 1
	s.armed = true
	s.current = index
	s.next = min(index+1, last)
	s.position = s.route[index].LatLng()
	s.progress = 0
	if index == last {
		s.phase = PhaseDone
	} else {
		s.phase = PhaseStopped
		s.stopEndsAt = now.Add(s.dwell)
	}
	if s.observer != nil {
		s.observer.Arrived(now, s.Status())
	}
}

// Tick advances the journey to now. Every transition is keyed to an
// absolute boundary (stopEndsAt, travelStartAt+travel), so a coarse tick
// catches up the boundaries it skipped and a repeated now changes nothing.
func (s *Simulator) Tick(now time.Time) {
	if !s.armed {
		return
	}
	for {
		switch s.phase {
		case PhaseStopped:
			if now.Before(s.stopEndsAt) {
				return
			}
			s.phase = PhaseMoving
			s.travelStartAt = s.stopEndsAt
		case PhaseMoving:
			arriveAt := s.travelStartAt.Add(s.travel)
			if now.Before(arriveAt) {
				t := float64(now.Sub(s.travelStartAt)) / float64(s.travel)
				if t < 0 {
					t = 0
				}
				s.progress = t
				s.position = Interpolate(s.route[s.current], s.route[s.next], t)
				return
			}
			s.Arrive(s.next, arriveAt)
		default:
			return
		}
	}
}

// SetRoute replaces the active route and resets the journey to its initial
// state. It must not be called while another goroutine may call Tick.
func (s *Simulator) SetRoute(r Route) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.route = r.Clone()
	s.reset()
	return nil
}

func (s *Simulator) SelectWaypoint(index int) error {
	if index < 0 || index >= len(s.route) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, len(s.route))
	}
	s.selected = index
	return nil
}

// SetTracking sets the camera-follow hint. It has no effect on the simulation.
func (s *Simulator) SetTracking(on bool) { s.tracking = on }

func (s *Simulator) Phase() Phase { return s.phase }
func (s *Simulator) CurrentIndex() int { return s.current }
func (s *Simulator) NextIndex() int { return s.next }
func (s *Simulator) Position() LatLng { return s.position }
func (s *Simulator) Progress() float64 { return s.progress }
func (s *Simulator) SelectedIndex() int { return s.selected }
func (s *Simulator) Tracking() bool { return s.tracking }
func (s *Simulator) Started() bool { return s.armed }
func (s *Simulator) Route() Route { return s.route.Clone() }
func (s *Simulator) TravelDuration() time.Duration { return s.travel }
func (s *Simulator) DwellDuration() time.Duration { return s.dwell }
func (s *Simulator) TickInterval() time.Duration { return s.tickInterval }

func (s *Simulator) Status() Status {
	return Status{
		Phase:         s.phase,
		CurrentIndex:  s.current,
		CurrentName:   s.route[s.current].Name,
		NextIndex:     s.next,
		NextName:      s.route[s.next].Name,
		Position:      s.position,
		Progress:      s.progress,
		SelectedIndex: s.selected,
		SelectedName:  s.route[s.selected].Name,
		Tracking:      s.tracking,
	}
}
