package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"journey-simulator/internal/journey"
	mmetrics "journey-simulator/internal/metrics"
	"journey-simulator/internal/publisher"
)

// Publisher is the outbound side of the runner; *publisher.NATSPublisher satisfies it.
type Publisher interface {
	PublishStatus(msg publisher.StatusMessage) error
	PublishArrival(msg publisher.ArrivalMessage) error
}

type Options struct {
	TravelDuration time.Duration
	DwellDuration  time.Duration
	TickInterval   time.Duration
	// Loop reverses the route and starts again one dwell after reaching the end.
	Loop bool

	// Ticks overrides the internal ticker; tests feed synthetic times here.
	Ticks <-chan time.Time
	// Now supplies the start time of the first run. Defaults to time.Now.
	Now func() time.Time
}

// Runner owns a journey.Simulator and drives it from a single goroutine.
// Control commands are applied between ticks, never concurrently with one.
type Runner struct {
	sim      *journey.Simulator
	pub      Publisher
	metrics  *mmetrics.Collector
	opts     Options
	controls chan publisher.ControlCommand

	runID     string
	lastTick  time.Time
	restartAt time.Time

	mu   sync.Mutex
	last *publisher.StatusMessage
}

func NewRunner(route journey.Route, opts Options, pub Publisher, metrics *mmetrics.Collector) (*Runner, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Ticks == nil && opts.TickInterval <= 0 {
		return nil, fmt.Errorf("tick interval must be positive, got %s", opts.TickInterval)
	}
	r := &Runner{
		pub:      pub,
		metrics:  metrics,
		opts:     opts,
		controls: make(chan publisher.ControlCommand, 16),
	}
	s, err := journey.New(journey.Config{
		Route:          route,
		TravelDuration: opts.TravelDuration,
		DwellDuration:  opts.DwellDuration,
		TickInterval:   opts.TickInterval,
		Observer:       r,
	})
	if err != nil {
		return nil, err
	}
	r.sim = s
	return r, nil
}

// Controls is where UI control commands are queued for the run loop.
func (r *Runner) Controls() chan<- publisher.ControlCommand { return r.controls }

// Run starts the journey and blocks until it finishes (without Loop) or ctx
// is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ticks := r.opts.Ticks
	if ticks == nil {
		ticker := time.NewTicker(r.opts.TickInterval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	r.lastTick = r.opts.Now()
	r.startRun(r.lastTick)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-r.controls:
			r.apply(cmd)
		case now := <-ticks:
			// Pending controls go first so a tick always reflects them.
			r.drainControls()
			r.lastTick = now
			r.tick(now)
			if r.sim.Phase() != journey.PhaseDone {
				continue
			}
			if !r.opts.Loop {
				log.Printf("run %s finished at %q", r.runID, r.sim.Status().CurrentName)
				return nil
			}
			if r.restartAt.IsZero() {
				r.restartAt = now.Add(r.opts.DwellDuration)
			}
			if !now.Before(r.restartAt) {
				r.reverse(now)
			}
		}
	}
}

func (r *Runner) tick(now time.Time) {
	start := time.Now()
	r.sim.Tick(now)
	s := r.sim.Status()
	eta := r.sim.EstimateArrival(now, s.SelectedIndex)
	msg := publisher.NewStatusMessage(r.runID, now, s, eta)
	if err := r.pub.PublishStatus(msg); err != nil {
		log.Printf("publish status error for run %s: %v", r.runID, err)
	}
	r.mu.Lock()
	r.last = &msg
	r.mu.Unlock()
	if r.metrics != nil {
		r.metrics.Ticks.Inc()
		r.metrics.ObserveStatus(s, eta)
		r.metrics.TickDuration.Observe(time.Since(start).Seconds())
	}
}

func (r *Runner) drainControls() {
	for {
		select {
		case cmd := <-r.controls:
			r.apply(cmd)
		default:
			return
		}
	}
}

// apply uses the time of the last tick, so a restarted run is anchored on
// the same clock the ticks are on.
func (r *Runner) apply(cmd publisher.ControlCommand) {
	switch cmd.Type {
	case publisher.ControlSelect:
		if cmd.Index == nil {
			return
		}
		if err := r.sim.SelectWaypoint(*cmd.Index); err != nil {
			log.Printf("select waypoint: %v", err)
		}
	case publisher.ControlTrack:
		if cmd.Tracking != nil {
			r.sim.SetTracking(*cmd.Tracking)
		}
	case publisher.ControlReverse:
		r.reverse(r.lastTick)
	case publisher.ControlRestart:
		r.restart(r.lastTick, r.sim.Route())
	default:
		log.Printf("ignoring control %q", cmd.Type)
	}
}

func (r *Runner) reverse(now time.Time) {
	r.restart(now, r.sim.Route().Reverse())
}

func (r *Runner) restart(now time.Time, route journey.Route) {
	if err := r.sim.SetRoute(route); err != nil {
		log.Printf("set route: %v", err)
		return
	}
	r.startRun(now)
}

func (r *Runner) startRun(now time.Time) {
	r.runID = uuid.NewString()
	r.restartAt = time.Time{}
	route := r.sim.Route()
	log.Printf("starting run %s: %s -> %s (%d waypoints)", r.runID, route[0].Name, route[len(route)-1].Name, len(route))
	if r.metrics != nil {
		r.metrics.RunsStarted.Inc()
	}
	r.sim.Start(now)
}

// Arrived implements journey.Observer.
func (r *Runner) Arrived(at time.Time, s journey.Status) {
	if r.metrics != nil {
		r.metrics.Arrivals.Inc()
		if s.Phase == journey.PhaseDone {
			r.metrics.RunsFinished.Inc()
		}
	}
	log.Printf("run %s arrived at %q (%d) at %s", r.runID, s.CurrentName, s.CurrentIndex, at.Format(time.RFC3339Nano))
	err := r.pub.PublishArrival(publisher.ArrivalMessage{
		RunID:     r.runID,
		Timestamp: at,
		Index:     s.CurrentIndex,
		Name:      s.CurrentName,
		Phase:     s.Phase,
	})
	if err != nil {
		log.Printf("publish arrival error for run %s: %v", r.runID, err)
	}
}

// Snapshot returns the last published status, if any. Safe from any goroutine.
func (r *Runner) Snapshot() (publisher.StatusMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return publisher.StatusMessage{}, false
	}
	return *r.last, true
}

// ServeHTTP writes the last status as JSON, or 503 before the first tick.
func (r *Runner) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	msg, ok := r.Snapshot()
	if !ok {
		http.Error(w, "no status yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msg)
}
