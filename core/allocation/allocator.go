// Package allocation converts a cart of heterogeneous line items into an
// effective labor-hour estimate. Repeated units of a shared-time eligible
// service category earn a cyclic discount: the first unit of each cycle of
// three needs full setup, the following two mostly overlap with it.
package allocation

import (
	"github.com/atelio/fieldops/core/model"
)

const (
	cycleLength   = 3
	fullWeight    = 1.0
	overlapWeight = 0.2
)

// UnitAllocation records how one expanded unit was weighted, so the
// breakdown shown to the user can reproduce the discount.
type UnitAllocation struct {
	ServiceCategoryID string  `json:"service_category_id"`
	Position          int     `json:"position"` // index within the category group, starting at 0
	BaseHours         float64 `json:"base_hours"`
	Weight            float64 `json:"weight"`
	EffectiveHours    float64 `json:"effective_hours"`
}

// EffectiveEstimate is the allocator output.
type EffectiveEstimate struct {
	TotalHours      float64          `json:"total_hours"`
	IndividualHours float64          `json:"individual_hours"`
	SharedHours     float64          `json:"shared_hours"`
	SharedBaseHours float64          `json:"shared_base_hours"`
	Units           []UnitAllocation `json:"units,omitempty"`
}

// BaseHours is the undiscounted total of the cart.
func (e EffectiveEstimate) BaseHours() float64 {
	return e.IndividualHours + e.SharedBaseHours
}

// SharedDiscountHours is the labor saved by the cyclic discount.
func (e EffectiveEstimate) SharedDiscountHours() float64 {
	return e.SharedBaseHours - e.SharedHours
}

// UnitWeight returns the cyclic weight for a unit's position within its
// category group. Position 0 of each cycle of three carries full effort,
// the other two the overlap fraction.
func UnitWeight(position int) float64 {
	if position%cycleLength == 0 {
		return fullWeight
	}
	return overlapWeight
}

// Allocate computes the effective estimate for the cart. Items are
// validated first; a negative quantity or hour estimate aborts the whole
// allocation. Items with no time estimate contribute zero hours.
func Allocate(items []model.LineItem) (EffectiveEstimate, error) {
	var est EffectiveEstimate
	for _, li := range items {
		if err := li.Validate(); err != nil {
			return EffectiveEstimate{}, err
		}
	}
	// Positions are assigned per category in cart order, so the discount
	// is a plain index computation over the expanded unit list.
	positions := make(map[string]int)
	for _, li := range items {
		if !li.SharedTimeEligible {
			est.IndividualHours += li.TotalBaseHours()
			continue
		}
		for u := 0; u < li.Quantity; u++ {
			pos := positions[li.ServiceCategoryID]
			positions[li.ServiceCategoryID] = pos + 1
			w := UnitWeight(pos)
			unit := UnitAllocation{
				ServiceCategoryID: li.ServiceCategoryID,
				Position:          pos,
				BaseHours:         li.HoursPerUnit,
				Weight:            w,
				EffectiveHours:    li.HoursPerUnit * w,
			}
			est.SharedBaseHours += unit.BaseHours
			est.SharedHours += unit.EffectiveHours
			est.Units = append(est.Units, unit)
		}
	}
	est.TotalHours = est.IndividualHours + est.SharedHours
	return est, nil
}
