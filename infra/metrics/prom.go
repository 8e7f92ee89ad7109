package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/atelio/fieldops/core/metrics"
)

// PromSink records scheduling events in Prometheus metrics.
type PromSink struct {
	projections *prometheus.CounterVec
	leadTime    prometheus.Histogram
	queued      *prometheus.GaugeVec
	backlog     prometheus.Gauge
	triage      *prometheus.CounterVec
}

// NewPromSink registers scheduling metrics on the default Prometheus
// registerer. The metrics server is started separately on cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	projections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_projections_total",
		Help: "Total number of delivery projections computed",
	}, []string{"technician_id", "support_suggested"})
	leadTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduling_projection_effective_hours",
		Help:    "Effective labor hours per projected order",
		Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32, 64, 128},
	})
	queued := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scheduling_technician_queued_hours",
		Help: "Outstanding labor hours queued per technician",
	}, []string{"technician_id"})
	backlog := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scheduling_unassigned_backlog_hours",
		Help: "Outstanding labor hours not yet assigned to a technician",
	})
	triage := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_triage_orders_total",
		Help: "Open orders classified per priority tier",
	}, []string{"tier"})

	if err := register(reg, &projections); err != nil {
		return nil, err
	}
	if err := registerHistogram(reg, &leadTime); err != nil {
		return nil, err
	}
	if err := registerGauge(reg, &queued); err != nil {
		return nil, err
	}
	if err := registerPlainGauge(reg, &backlog); err != nil {
		return nil, err
	}
	if err := register(reg, &triage); err != nil {
		return nil, err
	}

	return &PromSink{projections: projections, leadTime: leadTime, queued: queued, backlog: backlog, triage: triage}, nil
}

func register(reg prometheus.Registerer, c **prometheus.CounterVec) error {
	if err := reg.Register(*c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			*c = are.ExistingCollector.(*prometheus.CounterVec)
			return nil
		}
		return err
	}
	return nil
}

func registerHistogram(reg prometheus.Registerer, h *prometheus.Histogram) error {
	if err := reg.Register(*h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			*h = are.ExistingCollector.(prometheus.Histogram)
			return nil
		}
		return err
	}
	return nil
}

func registerGauge(reg prometheus.Registerer, g **prometheus.GaugeVec) error {
	if err := reg.Register(*g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			*g = are.ExistingCollector.(*prometheus.GaugeVec)
			return nil
		}
		return err
	}
	return nil
}

func registerPlainGauge(reg prometheus.Registerer, g *prometheus.Gauge) error {
	if err := reg.Register(*g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			*g = are.ExistingCollector.(prometheus.Gauge)
			return nil
		}
		return err
	}
	return nil
}

// RecordProjection increments the projection counter and observes the
// effective-hours histogram.
func (s *PromSink) RecordProjection(ev coremetrics.ProjectionEvent) error {
	suggested := "false"
	if ev.SupportSuggested {
		suggested = "true"
	}
	s.projections.WithLabelValues(ev.TechnicianID, suggested).Inc()
	s.leadTime.Observe(ev.EffectiveHours)
	return nil
}

// RecordTriage increments the per-tier triage counters.
func (s *PromSink) RecordTriage(ev coremetrics.TriageEvent) error {
	for tier, n := range ev.TierCounts {
		s.triage.WithLabelValues(tier).Add(float64(n))
	}
	return nil
}

// RecordWorkload sets the queued-hours gauges from the snapshot.
func (s *PromSink) RecordWorkload(ev coremetrics.WorkloadEvent) error {
	for id, hours := range ev.ByTechnician {
		s.queued.WithLabelValues(id).Set(hours)
	}
	s.backlog.Set(ev.UnassignedBacklog)
	return nil
}
