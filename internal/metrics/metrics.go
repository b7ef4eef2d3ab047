package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"journey-simulator/internal/journey"
)

type Collector struct {
	reg *prometheus.Registry

	Ticks        prometheus.Counter
	TickDuration prometheus.Histogram
	Arrivals     prometheus.Counter
	RunsStarted  prometheus.Counter
	RunsFinished prometheus.Counter

	Phase        *prometheus.GaugeVec // phase label: STOPPED|MOVING|DONE, one-hot
	CurrentIndex prometheus.Gauge
	SelectedETA  prometheus.Gauge // seconds; -1 when no arrival is pending

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	ControlCommands *prometheus.CounterVec // kind label: select|track|reverse|restart|invalid|dropped

	TravelSeconds prometheus.Gauge
	DwellSeconds  prometheus.Gauge
	TickInterval  prometheus.Gauge // seconds
}

func NewCollector(travel, dwell, tickInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journey_ticks_total",
			Help: "Total simulator ticks.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "journey_tick_duration_seconds",
			Help:    "Duration of a tick including status publish.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 15),
		}),
		Arrivals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journey_arrivals_total",
			Help: "Total waypoint arrivals.",
		}),
		RunsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journey_runs_started_total",
			Help: "Total journeys started.",
		}),
		RunsFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journey_runs_finished_total",
			Help: "Total journeys that reached the last waypoint.",
		}),
		Phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "journey_phase",
			Help: "1 for the current journey phase, 0 otherwise.",
		}, []string{"phase"}),
		CurrentIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "journey_current_index",
			Help: "Index of the last waypoint reached.",
		}),
		SelectedETA: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "journey_selected_eta_seconds",
			Help: "ETA to the selected waypoint in seconds, -1 if passed or unavailable.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journey_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journey_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "journey_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "journey_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		ControlCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journey_control_commands_total",
			Help: "Control commands received, by kind.",
		}, []string{"kind"}),
		TravelSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "journey_travel_duration_seconds",
			Help: "Configured time per leg in seconds.",
		}),
		DwellSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "journey_dwell_duration_seconds",
			Help: "Configured dwell per waypoint in seconds.",
		}),
		TickInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "journey_tick_interval_seconds",
			Help: "Tick interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.Ticks, c.TickDuration, c.Arrivals, c.RunsStarted, c.RunsFinished,
		c.Phase, c.CurrentIndex, c.SelectedETA,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.ControlCommands,
		c.TravelSeconds, c.DwellSeconds, c.TickInterval,
	)

	c.TravelSeconds.Set(travel.Seconds())
	c.DwellSeconds.Set(dwell.Seconds())
	c.TickInterval.Set(tickInterval.Seconds())

	return c
}

// ObserveStatus updates the journey gauges from a post-tick snapshot.
func (c *Collector) ObserveStatus(s journey.Status, eta journey.ETA) {
	for _, p := range journey.Phases {
		v := 0.0
		if p == s.Phase {
			v = 1
		}
		c.Phase.WithLabelValues(p.String()).Set(v)
	}
	c.CurrentIndex.Set(float64(s.CurrentIndex))
	switch eta.Kind {
	case journey.ETAEnRoute, journey.ETAAtStop:
		c.SelectedETA.Set(eta.Remaining.Seconds())
	default:
		c.SelectedETA.Set(-1)
	}
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Router exposes /metrics, /healthz and, when status is non-nil, /status.
func (c *Collector) Router(status http.Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	r.Method(http.MethodGet, "/metrics", c.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if status != nil {
		r.Method(http.MethodGet, "/status", status)
	}
	return r
}

// Serve starts an HTTP server for Router on the given address.
func (c *Collector) Serve(addr string, status http.Handler, allowedOrigins []string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: c.Router(status, allowedOrigins), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}

// Publisher adapts the collector to publisher.PublisherMetrics.
type Publisher struct{ C *Collector }

func (p Publisher) NATSPublishedInc()              { p.C.NATSPublished.Inc() }
func (p Publisher) NATSPublishErrInc()             { p.C.NATSPublishErrs.Inc() }
func (p Publisher) PublishObserve(d time.Duration) { p.C.PublishDuration.Observe(d.Seconds()) }
func (p Publisher) ControlInc(kind string)         { p.C.ControlCommands.WithLabelValues(kind).Inc() }
func (p Publisher) NATSSetConnected(b bool) {
	if b {
		p.C.NATSConnected.Set(1)
	} else {
		p.C.NATSConnected.Set(0)
	}
}
