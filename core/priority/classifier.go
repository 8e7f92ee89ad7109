// Package priority classifies open orders into coarse urgency tiers for
// dashboard sorting and badging. Tiers are recomputed on every read; they
// are never authoritative state.
package priority

import "time"

// Tier is a triage urgency level with a total order:
// critical > high > medium > low.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
	TierCritical
)

const (
	dueSoonWindow  = 24 * time.Hour
	dueNearWindow  = 72 * time.Hour
	agingHighAfter = 48 * time.Hour
	agingCritAfter = 72 * time.Hour
)

// String returns the wire name of the tier.
func (t Tier) String() string {
	switch t {
	case TierCritical:
		return "critical"
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	default:
		return "low"
	}
}

// Label returns the display name shown on dashboard badges.
func (t Tier) Label() string {
	switch t {
	case TierCritical:
		return "Critical"
	case TierHigh:
		return "High"
	case TierMedium:
		return "Medium"
	default:
		return "Low"
	}
}

// CSSClass returns the badge class for the tier. Pure presentation.
func (t Tier) CSSClass() string {
	switch t {
	case TierCritical:
		return "badge-critical"
	case TierHigh:
		return "badge-high"
	case TierMedium:
		return "badge-medium"
	default:
		return "badge-low"
	}
}

// Tiers lists all tiers in ascending urgency.
func Tiers() []Tier {
	return []Tier{TierLow, TierMedium, TierHigh, TierCritical}
}

// Classify maps an order's age and optional target delivery date to a
// tier. With a target date set, proximity to the deadline decides; overdue
// dominates everything. Without one, elapsed age decides, and deadline-less
// open work is never classified low.
func Classify(createdAt, now time.Time, targetDeliveryDate *time.Time) Tier {
	if targetDeliveryDate != nil {
		target := *targetDeliveryDate
		switch {
		case now.After(target):
			return TierCritical
		case target.Sub(now) < dueSoonWindow:
			return TierHigh
		case target.Sub(now) < dueNearWindow:
			return TierMedium
		default:
			return TierLow
		}
	}
	age := now.Sub(createdAt)
	switch {
	case age > agingCritAfter:
		return TierCritical
	case age > agingHighAfter:
		return TierHigh
	default:
		return TierMedium
	}
}
