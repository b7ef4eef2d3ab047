package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"journey-simulator/internal/config"
	"journey-simulator/internal/metrics"
	"journey-simulator/internal/publisher"
	"journey-simulator/internal/routes"
	"journey-simulator/internal/sim"
)

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	route, err := routes.Resolve(ctx, cfg)
	if err != nil {
		log.Fatalf("route error: %v", err)
	}
	log.Printf("route %s -> %s, %d waypoints (source %s)", route[0].Name, route[len(route)-1].Name, len(route), cfg.RouteSource)

	// Metrics setup
	var mcol *metrics.Collector
	var pubMetrics publisher.PublisherMetrics
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.TravelDuration, cfg.DwellDuration, cfg.TickInterval)
		pubMetrics = metrics.Publisher{C: mcol}
	}

	pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects, pubMetrics)
	if err != nil {
		log.Fatalf("nats error: %v", err)
	}
	defer pub.Close()

	runner, err := sim.NewRunner(route, sim.Options{
		TravelDuration: cfg.TravelDuration,
		DwellDuration:  cfg.DwellDuration,
		TickInterval:   cfg.TickInterval,
		Loop:           cfg.Loop,
	}, pub, mcol)
	if err != nil {
		log.Fatalf("simulator error: %v", err)
	}
	if err := pub.SubscribeControl(runner.Controls()); err != nil {
		log.Fatalf("nats error: %v", err)
	}

	if mcol != nil {
		srv := mcol.Serve(cfg.MetricsAddr, runner, cfg.CORSOrigins)
		defer func() {
			// Shutdown with timeout
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("runner error: %v", err)
	}
	log.Println("shutdown complete")
}
