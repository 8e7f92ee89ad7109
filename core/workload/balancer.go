// Package workload aggregates outstanding labor hours per technician and
// produces advisory support-technician suggestions. Snapshots are rebuilt
// from scratch on every computation; there is no incremental state to go
// stale between calls.
package workload

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/atelio/fieldops/core/model"
)

// Snapshot is the per-technician queued-hours view over the open orders of
// one store read. Lifecycle is read-compute-discard.
type Snapshot struct {
	ByTechnician      map[string]float64 `json:"by_technician"`
	UnassignedBacklog float64            `json:"unassigned_backlog"`
}

// FleetStats summarizes the load distribution across the roster.
type FleetStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Policy carries the business threshold for support suggestions. It is
// caller configuration, not engine behavior.
type Policy struct {
	OverloadThresholdHours float64 `json:"overload_threshold_hours"`
}

// SupportSuggestion is advisory only; declining it is always valid.
type SupportSuggestion struct {
	Suggested    bool   `json:"suggested"`
	TechnicianID string `json:"technician_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Compute sums estimated hours of every non-terminal order, grouped by
// assigned technician. Orders without a technician feed the unassigned
// backlog instead of the map.
func Compute(openOrders []model.OrderSummary) Snapshot {
	snap := Snapshot{ByTechnician: make(map[string]float64)}
	for _, o := range openOrders {
		if o.Status.IsTerminal() {
			continue
		}
		if o.AssignedTechnicianID == "" {
			snap.UnassignedBacklog += o.EstimatedHours
			continue
		}
		snap.ByTechnician[o.AssignedTechnicianID] += o.EstimatedHours
	}
	return snap
}

// QueuedHours returns the hours already assigned to the technician.
func (s Snapshot) QueuedHours(technicianID string) float64 {
	return s.ByTechnician[technicianID]
}

// Stats computes mean and standard deviation of queued hours over the
// given roster. Technicians with no open orders count as zero load.
func (s Snapshot) Stats(roster []model.Technician) FleetStats {
	if len(roster) == 0 {
		return FleetStats{}
	}
	loads := make([]float64, len(roster))
	for i, tech := range roster {
		loads[i] = s.ByTechnician[tech.ID]
	}
	mean, std := stat.MeanStdDev(loads, nil)
	if len(loads) < 2 {
		std = 0
	}
	return FleetStats{Mean: mean, StdDev: std}
}

// SuggestSupport flags reinforcement when the primary technician's queue
// plus the incoming hours exceeds the policy threshold relative to the
// least-loaded colleague. The least-loaded technician is suggested, ties
// broken by id for determinism. The primary is never their own support.
func SuggestSupport(primaryID string, incomingHours float64, roster []model.Technician, snap Snapshot, policy Policy) SupportSuggestion {
	candidateID := ""
	minQueued := 0.0
	for _, tech := range sortedByID(roster) {
		if tech.ID == primaryID {
			continue
		}
		queued := snap.QueuedHours(tech.ID)
		if candidateID == "" || queued < minQueued {
			candidateID = tech.ID
			minQueued = queued
		}
	}
	if candidateID == "" {
		return SupportSuggestion{}
	}
	primaryLoad := snap.QueuedHours(primaryID) + incomingHours
	if primaryLoad <= policy.OverloadThresholdHours+minQueued {
		return SupportSuggestion{}
	}
	return SupportSuggestion{
		Suggested:    true,
		TechnicianID: candidateID,
		Reason: fmt.Sprintf(
			"primary would carry %.1fh against %.1fh queued on %s; adding support keeps the queue balanced",
			primaryLoad, minQueued, candidateID),
	}
}

func sortedByID(roster []model.Technician) []model.Technician {
	out := make([]model.Technician, len(roster))
	copy(out, roster)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
