package app

import (
	"context"

	"github.com/atelio/fieldops/core/events"
	coremetrics "github.com/atelio/fieldops/core/metrics"
	"github.com/atelio/fieldops/infra/logger"
	"github.com/atelio/fieldops/infra/mqtt"
	"github.com/atelio/fieldops/internal/eventbus"
)

// Recorder drains scheduling events from the bus and fans them out to the
// metrics sink and the MQTT advisory publisher. Recording failures are
// logged, never surfaced to API callers.
type Recorder struct {
	bus       *eventbus.Bus[events.Event]
	sink      coremetrics.MetricsSink
	publisher mqtt.AdvisoryPublisher
	log       logger.Logger
}

// NewRecorder creates a Recorder. The publisher may be nil.
func NewRecorder(bus *eventbus.Bus[events.Event], sink coremetrics.MetricsSink, publisher mqtt.AdvisoryPublisher, log logger.Logger) *Recorder {
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	return &Recorder{bus: bus, sink: sink, publisher: publisher, log: log}
}

// Run consumes events until the context is cancelled or the bus closes.
func (r *Recorder) Run(ctx context.Context) {
	sub := r.bus.Subscribe()
	defer r.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			r.handle(ev)
		}
	}
}

func (r *Recorder) handle(ev events.Event) {
	switch e := ev.(type) {
	case events.ProjectionComputed:
		if err := r.sink.RecordProjection(e.Projection); err != nil {
			r.log.Errorf("record projection: %v", err)
		}
		if r.publisher != nil && e.Suggestion.Suggested {
			if err := r.publisher.PublishSuggestion(e.Projection.OrderID, e.Suggestion); err != nil {
				r.log.Errorf("publish suggestion: %v", err)
			}
		}
	case events.TriageComputed:
		if rec, ok := r.sink.(coremetrics.TriageRecorder); ok {
			if err := rec.RecordTriage(e.Triage); err != nil {
				r.log.Errorf("record triage: %v", err)
			}
		}
		if rec, ok := r.sink.(coremetrics.WorkloadRecorder); ok {
			if err := rec.RecordWorkload(e.Workload); err != nil {
				r.log.Errorf("record workload: %v", err)
			}
		}
		if r.publisher != nil {
			if err := r.publisher.PublishTriage(e.Triage); err != nil {
				r.log.Errorf("publish triage: %v", err)
			}
		}
	case events.WorkloadComputed:
		if rec, ok := r.sink.(coremetrics.WorkloadRecorder); ok {
			if err := rec.RecordWorkload(e.Workload); err != nil {
				r.log.Errorf("record workload: %v", err)
			}
		}
	}
}
