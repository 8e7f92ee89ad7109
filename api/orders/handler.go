// Package orders exposes the scheduling engine over HTTP JSON endpoints
// for the order-creation flow and the triage dashboards. Handlers read a
// fresh snapshot per request; the engine itself performs no I/O.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/atelio/fieldops/core/events"
	"github.com/atelio/fieldops/core/logger"
	coremetrics "github.com/atelio/fieldops/core/metrics"
	"github.com/atelio/fieldops/core/model"
	"github.com/atelio/fieldops/core/priority"
	"github.com/atelio/fieldops/core/projection"
	"github.com/atelio/fieldops/core/schedule"
	"github.com/atelio/fieldops/core/workload"
	"github.com/atelio/fieldops/internal/eventbus"
)

// SnapshotSource supplies the engine inputs. Implemented by infra/store.
type SnapshotSource interface {
	OpenOrders(ctx context.Context) ([]model.OrderSummary, error)
	Roster(ctx context.Context) ([]model.Technician, error)
	ScheduleOverride(ctx context.Context, technicianID string) (*schedule.Config, error)
}

// API wires the engine, the store and the event bus behind HTTP handlers.
type API struct {
	store           SnapshotSource
	defaultCalendar schedule.Config
	policy          workload.Policy
	reductionFactor float64
	bus             *eventbus.Bus[events.Event]
	log             logger.Logger

	now func() time.Time
}

// New creates the API. bus may be nil when no sinks are attached.
func New(store SnapshotSource, defaultCalendar schedule.Config, policy workload.Policy, reductionFactor float64, bus *eventbus.Bus[events.Event], log logger.Logger) *API {
	return &API{
		store:           store,
		defaultCalendar: defaultCalendar,
		policy:          policy,
		reductionFactor: reductionFactor,
		bus:             bus,
		log:             log,
		now:             time.Now,
	}
}

// Register mounts the handlers on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/orders/projection", a.handleProjection)
	mux.HandleFunc("/api/orders/triage", a.handleTriage)
	mux.HandleFunc("/api/workload", a.handleWorkload)
}

type projectionRequest struct {
	OrderID             string           `json:"order_id"`
	LineItems           []model.LineItem `json:"line_items"`
	PrimaryTechnicianID string           `json:"primary_technician_id"`
	SupportTechnicianID string           `json:"support_technician_id"`
}

type projectionResponse struct {
	DeliveryAt     time.Time                  `json:"delivery_at"`
	WorkStartsAt   time.Time                  `json:"work_starts_at"`
	EffectiveHours float64                    `json:"effective_hours"`
	Breakdown      string                     `json:"breakdown"`
	Suggestion     workload.SupportSuggestion `json:"support_suggestion"`
}

func (a *API) handleProjection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req projectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PrimaryTechnicianID == "" {
		writeError(w, http.StatusBadRequest, "primary_technician_id is required")
		return
	}

	ctx := r.Context()
	open, err := a.store.OpenOrders(ctx)
	if err != nil {
		a.log.Errorf("open orders: %v", err)
		writeError(w, http.StatusInternalServerError, "snapshot read failed")
		return
	}
	snap := workload.Compute(open)

	primaryCal, err := a.calendarFor(ctx, req.PrimaryTechnicianID)
	if err != nil {
		a.schedulingError(w, err)
		return
	}
	var supportCal *schedule.WorkCalendar
	if req.SupportTechnicianID != "" {
		supportCal, err = a.calendarFor(ctx, req.SupportTechnicianID)
		if err != nil {
			a.schedulingError(w, err)
			return
		}
	}

	now := a.now()
	queued := snap.QueuedHours(req.PrimaryTechnicianID)
	res, err := projection.Project(req.LineItems, primaryCal, supportCal, now, queued, a.reductionFactor)
	if err != nil {
		a.schedulingError(w, err)
		return
	}

	roster, err := a.store.Roster(ctx)
	if err != nil {
		a.log.Errorf("roster: %v", err)
		writeError(w, http.StatusInternalServerError, "snapshot read failed")
		return
	}
	suggestion := workload.SuggestSupport(req.PrimaryTechnicianID, res.Estimate.TotalHours, roster, snap, a.policy)

	a.publish(events.ProjectionComputed{
		Projection: coremetrics.ProjectionEvent{
			OrderID:             req.OrderID,
			TechnicianID:        req.PrimaryTechnicianID,
			SupportTechnicianID: req.SupportTechnicianID,
			BaseHours:           res.Estimate.BaseHours(),
			EffectiveHours:      res.EffectiveHours,
			QueuedAheadHours:    queued,
			SupportSuggested:    suggestion.Suggested,
			DeliveryAt:          res.DeliveryAt,
			Time:                now,
		},
		Suggestion: suggestion,
	})

	writeJSON(w, a.log, projectionResponse{
		DeliveryAt:     res.DeliveryAt,
		WorkStartsAt:   res.WorkStartsAt,
		EffectiveHours: res.EffectiveHours,
		Breakdown:      res.Breakdown,
		Suggestion:     suggestion,
	})
}

type triageEntry struct {
	model.OrderSummary
	Tier     string `json:"tier"`
	Label    string `json:"label"`
	CSSClass string `json:"css_class"`
}

func (a *API) handleTriage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	open, err := a.store.OpenOrders(ctx)
	if err != nil {
		a.log.Errorf("open orders: %v", err)
		writeError(w, http.StatusInternalServerError, "snapshot read failed")
		return
	}

	now := a.now()
	type ranked struct {
		triageEntry
		tier priority.Tier
	}
	rankedEntries := make([]ranked, len(open))
	counts := make(map[string]int)
	for i, o := range open {
		tier := priority.Classify(o.CreatedAt, now, o.TargetDeliveryDate)
		counts[tier.String()]++
		rankedEntries[i] = ranked{
			triageEntry: triageEntry{
				OrderSummary: o,
				Tier:         tier.String(),
				Label:        tier.Label(),
				CSSClass:     tier.CSSClass(),
			},
			tier: tier,
		}
	}
	sort.SliceStable(rankedEntries, func(i, j int) bool {
		if rankedEntries[i].tier != rankedEntries[j].tier {
			return rankedEntries[i].tier > rankedEntries[j].tier
		}
		return rankedEntries[i].CreatedAt.Before(rankedEntries[j].CreatedAt)
	})
	entries := make([]triageEntry, len(rankedEntries))
	for i, r := range rankedEntries {
		entries[i] = r.triageEntry
	}

	snap := workload.Compute(open)
	a.publish(events.TriageComputed{
		Triage: coremetrics.TriageEvent{TierCounts: counts, Orders: len(open), Time: now},
		Workload: coremetrics.WorkloadEvent{
			ByTechnician:      snap.ByTechnician,
			UnassignedBacklog: snap.UnassignedBacklog,
			Time:              now,
		},
	})

	writeJSON(w, a.log, entries)
}

type workloadResponse struct {
	ByTechnician      map[string]float64  `json:"by_technician"`
	UnassignedBacklog float64             `json:"unassigned_backlog"`
	Stats             workload.FleetStats `json:"stats"`
}

func (a *API) handleWorkload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	open, err := a.store.OpenOrders(ctx)
	if err != nil {
		a.log.Errorf("open orders: %v", err)
		writeError(w, http.StatusInternalServerError, "snapshot read failed")
		return
	}
	roster, err := a.store.Roster(ctx)
	if err != nil {
		a.log.Errorf("roster: %v", err)
		writeError(w, http.StatusInternalServerError, "snapshot read failed")
		return
	}

	snap := workload.Compute(open)
	a.publish(events.WorkloadComputed{
		Workload: coremetrics.WorkloadEvent{
			ByTechnician:      snap.ByTechnician,
			UnassignedBacklog: snap.UnassignedBacklog,
			Time:              a.now(),
		},
	})

	writeJSON(w, a.log, workloadResponse{
		ByTechnician:      snap.ByTechnician,
		UnassignedBacklog: snap.UnassignedBacklog,
		Stats:             snap.Stats(roster),
	})
}

// calendarFor builds the technician's calendar from their override, or the
// shared default when none is stored.
func (a *API) calendarFor(ctx context.Context, technicianID string) (*schedule.WorkCalendar, error) {
	cfg, err := a.store.ScheduleOverride(ctx, technicianID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		def := a.defaultCalendar
		cfg = &def
	}
	return schedule.NewWorkCalendar(*cfg)
}

func (a *API) publish(ev events.Event) {
	if a.bus != nil {
		a.bus.Publish(ev)
	}
}

// schedulingError maps engine failures onto status codes. Validation
// failures are the caller's to fix; calendar failures tell the UI to fall
// back to manual date entry.
func (a *API) schedulingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidLineItem):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, schedule.ErrInvalidCalendar), errors.Is(err, schedule.ErrSchedulingUnavailable):
		a.log.Warnf("scheduling unavailable: %v", err)
		writeError(w, http.StatusServiceUnavailable, "scheduling unavailable, enter a delivery date manually")
	default:
		a.log.Errorf("projection: %v", err)
		writeError(w, http.StatusInternalServerError, "projection failed")
	}
}

func writeJSON(w http.ResponseWriter, log logger.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
