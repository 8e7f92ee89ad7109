// Package projection composes the allocator, workload and calendar walks
// into a concrete delivery instant with an auditable breakdown.
package projection

import (
	"fmt"
	"strings"
	"time"

	"github.com/atelio/fieldops/core/allocation"
	"github.com/atelio/fieldops/core/model"
	"github.com/atelio/fieldops/core/schedule"
)

// DefaultSupportReductionFactor is the fraction of effective hours saved
// per added support technician. Business policy, overridable in config.
const DefaultSupportReductionFactor = 0.005

const timeLayout = "2006-01-02 15:04"

// Result is the projector output. Breakdown is display-ready text letting
// the user audit why the date was produced.
type Result struct {
	DeliveryAt     time.Time                    `json:"delivery_at"`
	WorkStartsAt   time.Time                    `json:"work_starts_at"`
	EffectiveHours float64                      `json:"effective_hours"`
	Estimate       allocation.EffectiveEstimate `json:"estimate"`
	Breakdown      string                       `json:"breakdown"`
}

// Project walks the primary technician's calendar from now: first past the
// hours already queued ahead, then through the order's effective hours. The
// support calendar is informational; it only flags availability mismatch in
// the breakdown. A nil or exhausted primary calendar fails with
// ErrSchedulingUnavailable so the caller can fall back to manual entry,
// never a silently returned now.
func Project(items []model.LineItem, primary, support *schedule.WorkCalendar, now time.Time, primaryQueuedHours, supportReductionFactor float64) (Result, error) {
	if primary == nil {
		return Result{}, fmt.Errorf("%w: no primary calendar", schedule.ErrSchedulingUnavailable)
	}
	est, err := allocation.Allocate(items)
	if err != nil {
		return Result{}, err
	}

	factor := clampFactor(supportReductionFactor)
	effective := est.TotalHours
	supportReduction := 0.0
	if support != nil {
		supportReduction = effective * factor
		effective -= supportReduction
	}

	workStart, err := primary.Advance(now, primaryQueuedHours)
	if err != nil {
		return Result{}, err
	}
	delivery, err := primary.Advance(workStart, effective)
	if err != nil {
		return Result{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "base labor: %.1fh\n", est.BaseHours())
	if est.SharedDiscountHours() > 0 {
		fmt.Fprintf(&b, "shared-time discount: -%.1fh\n", est.SharedDiscountHours())
	}
	if support != nil {
		fmt.Fprintf(&b, "support reduction (%.1f%%): -%.2fh\n", factor*100, supportReduction)
		if !primary.SharesActiveDay(support) {
			b.WriteString("note: support technician shares no work day with the primary\n")
		}
	}
	fmt.Fprintf(&b, "queued ahead: %.1fh\n", primaryQueuedHours)
	fmt.Fprintf(&b, "work begins: %s\n", workStart.Format(timeLayout))
	fmt.Fprintf(&b, "estimated delivery: %s", delivery.Format(timeLayout))

	return Result{
		DeliveryAt:     delivery,
		WorkStartsAt:   workStart,
		EffectiveHours: effective,
		Estimate:       est,
		Breakdown:      b.String(),
	}, nil
}

// clampFactor keeps the reduction inside [0, 1): a factor of 1 or more
// would schedule zero or negative work.
func clampFactor(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f >= 1 {
		return 0.99
	}
	return f
}
