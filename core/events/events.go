// Package events defines the notifications the API layer publishes after a
// scheduling computation, consumed by the metrics recorder and the MQTT
// advisory publisher. Keeping sinks behind a bus keeps the engine pure.
package events

import (
	coremetrics "github.com/atelio/fieldops/core/metrics"
	"github.com/atelio/fieldops/core/workload"
)

// Event is one scheduling notification.
type Event interface{ isEvent() }

// ProjectionComputed is published after a delivery projection succeeds.
type ProjectionComputed struct {
	Projection coremetrics.ProjectionEvent
	Suggestion workload.SupportSuggestion
}

// TriageComputed is published after one dashboard triage pass.
type TriageComputed struct {
	Triage   coremetrics.TriageEvent
	Workload coremetrics.WorkloadEvent
}

// WorkloadComputed is published after a workload snapshot request.
type WorkloadComputed struct {
	Workload coremetrics.WorkloadEvent
}

func (ProjectionComputed) isEvent() {}
func (TriageComputed) isEvent()     {}
func (WorkloadComputed) isEvent()   {}
