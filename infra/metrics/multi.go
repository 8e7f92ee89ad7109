package metrics

import coremetrics "github.com/atelio/fieldops/core/metrics"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordProjection forwards the event to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordProjection(ev coremetrics.ProjectionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordProjection(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordTriage forwards triage passes to sinks that support them.
func (m *MultiSink) RecordTriage(ev coremetrics.TriageEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.TriageRecorder); ok {
			if err := rec.RecordTriage(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordWorkload forwards workload snapshots to sinks that support them.
func (m *MultiSink) RecordWorkload(ev coremetrics.WorkloadEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.WorkloadRecorder); ok {
			if err := rec.RecordWorkload(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
