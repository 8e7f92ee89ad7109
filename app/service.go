package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/atelio/fieldops/api/orders"
	"github.com/atelio/fieldops/config"
	"github.com/atelio/fieldops/core/events"
	coremetrics "github.com/atelio/fieldops/core/metrics"
	"github.com/atelio/fieldops/core/workload"
	"github.com/atelio/fieldops/infra/logger"
	"github.com/atelio/fieldops/infra/metrics"
	"github.com/atelio/fieldops/infra/mqtt"
	"github.com/atelio/fieldops/infra/store"
	"github.com/atelio/fieldops/internal/eventbus"
)

// Service wires the scheduling API to its store, sinks and publishers.
type Service struct {
	API       *orders.API
	store     *store.SnapshotStore
	bus       *eventbus.Bus[events.Event]
	recorder  *Recorder
	publisher mqtt.AdvisoryPublisher
	log       logger.Logger

	httpAddr    string
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		sinks = append(sinks, sink)
	}
	var sink coremetrics.MetricsSink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	var publisher mqtt.AdvisoryPublisher
	if cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		publisher = client
	}

	calendar, err := cfg.Engine.Calendar.ToSchedule()
	if err != nil {
		return nil, fmt.Errorf("calendar config: %w", err)
	}
	policy := workload.Policy{OverloadThresholdHours: cfg.Engine.OverloadThresholdHours}

	bus := eventbus.New[events.Event]()
	api := orders.New(st, calendar, policy, cfg.Engine.SupportReductionFactor, bus, logg)

	return &Service{
		API:         api,
		store:       st,
		bus:         bus,
		recorder:    NewRecorder(bus, sink, publisher, logger.New("recorder")),
		publisher:   publisher,
		log:         logg,
		httpAddr:    cfg.API.Addr,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.recorder.Run(ctx)
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	mux := http.NewServeMux()
	s.API.Register(mux)
	srv := &http.Server{Addr: s.httpAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.httpAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.publisher != nil {
		s.publisher.Disconnect()
	}
	return s.store.Close()
}
