// Package metrics defines the observability events emitted by the
// scheduling engine's callers and the sink interfaces that record them.
// The engine itself stays pure; handlers publish these events after the
// computation is done.
package metrics

import "time"

// ProjectionEvent captures one delivery projection shown to a user.
type ProjectionEvent struct {
	OrderID             string
	TechnicianID        string
	SupportTechnicianID string
	BaseHours           float64
	EffectiveHours      float64
	QueuedAheadHours    float64
	SupportSuggested    bool
	DeliveryAt          time.Time
	Time                time.Time
}

// TriageEvent captures one dashboard triage pass over the open orders.
type TriageEvent struct {
	TierCounts map[string]int
	Orders     int
	Time       time.Time
}

// WorkloadEvent is a snapshot of queued hours per technician.
type WorkloadEvent struct {
	ByTechnician      map[string]float64
	UnassignedBacklog float64
	Time              time.Time
}

// MetricsSink records projection events for observability purposes.
type MetricsSink interface {
	RecordProjection(ev ProjectionEvent) error
}

// TriageRecorder is implemented by sinks able to record triage passes.
type TriageRecorder interface {
	RecordTriage(ev TriageEvent) error
}

// WorkloadRecorder is implemented by sinks able to record workload snapshots.
type WorkloadRecorder interface {
	RecordWorkload(ev WorkloadEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordProjection(ProjectionEvent) error { return nil }
func (NopSink) RecordTriage(TriageEvent) error         { return nil }
func (NopSink) RecordWorkload(WorkloadEvent) error     { return nil }
