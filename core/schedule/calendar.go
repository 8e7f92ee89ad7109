// Package schedule models a technician's recurring business hours and
// advances instants across them by a duration of labor hours.
package schedule

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidCalendar indicates a calendar configuration that can never
// terminate a walk: no active weekdays, start at or after end, or a break
// consuming the whole day. Rejected at construction, never during Advance.
var ErrInvalidCalendar = errors.New("invalid calendar")

// ErrSchedulingUnavailable indicates the walk exceeded the configured
// horizon before the requested hours were consumed.
var ErrSchedulingUnavailable = errors.New("scheduling unavailable")

// DefaultMaxHorizonDays bounds a single Advance walk. A healthy calendar
// consumes queued plus incoming hours well inside this window.
const DefaultMaxHorizonDays = 365

// Config defines one technician's recurring calendar. DayStartMinute and
// DayEndMinute are minutes from midnight. The break is a flat capacity
// deduction per work day, not a placed interval.
type Config struct {
	Weekdays       []time.Weekday `json:"weekdays"`
	DayStartMinute int            `json:"day_start_minute"`
	DayEndMinute   int            `json:"day_end_minute"`
	BreakMinutes   int            `json:"break_minutes"`
	MaxHorizonDays int            `json:"max_horizon_days"`
}

// Validate checks the invariants start < end and break < capacity, and
// requires at least one active weekday.
func (c Config) Validate() error {
	if len(c.Weekdays) == 0 {
		return fmt.Errorf("%w: empty work-day set", ErrInvalidCalendar)
	}
	if c.DayStartMinute < 0 || c.DayEndMinute > 24*60 {
		return fmt.Errorf("%w: window outside day bounds", ErrInvalidCalendar)
	}
	if c.DayStartMinute >= c.DayEndMinute {
		return fmt.Errorf("%w: day start %d >= day end %d", ErrInvalidCalendar, c.DayStartMinute, c.DayEndMinute)
	}
	if c.BreakMinutes < 0 {
		return fmt.Errorf("%w: negative break", ErrInvalidCalendar)
	}
	if c.BreakMinutes >= c.DayEndMinute-c.DayStartMinute {
		return fmt.Errorf("%w: break %dm >= daily capacity %dm", ErrInvalidCalendar, c.BreakMinutes, c.DayEndMinute-c.DayStartMinute)
	}
	return nil
}

// WorkCalendar walks instants across the configured business hours. It is a
// pure value; concurrent Advance calls with different arguments are safe.
type WorkCalendar struct {
	cfg    Config
	active [7]bool
}

// NewWorkCalendar validates cfg and returns a calendar ready for Advance.
func NewWorkCalendar(cfg Config) (*WorkCalendar, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxHorizonDays <= 0 {
		cfg.MaxHorizonDays = DefaultMaxHorizonDays
	}
	wc := &WorkCalendar{cfg: cfg}
	for _, d := range cfg.Weekdays {
		wc.active[d%7] = true
	}
	return wc, nil
}

// Config returns the calendar configuration used at construction.
func (w *WorkCalendar) Config() Config { return w.cfg }

// DailyCapacityHours is the usable labor time of one full work day.
func (w *WorkCalendar) DailyCapacityHours() float64 {
	return float64(w.cfg.DayEndMinute-w.cfg.DayStartMinute-w.cfg.BreakMinutes) / 60
}

// SharesActiveDay reports whether both calendars work at least one common
// weekday. Used to sanity-check a support technician's availability.
func (w *WorkCalendar) SharesActiveDay(other *WorkCalendar) bool {
	if other == nil {
		return false
	}
	for d := 0; d < 7; d++ {
		if w.active[d] && other.active[d] {
			return true
		}
	}
	return false
}

// Advance consumes hours of labor starting at start, walking day by day.
// Inactive days are skipped; a start outside the business window rolls
// forward to the next active day's opening. Unconsumed remainder rolls to
// the next active day. Returns ErrSchedulingUnavailable when the walk
// exceeds the configured horizon.
func (w *WorkCalendar) Advance(start time.Time, hours float64) (time.Time, error) {
	if hours <= 0 {
		return start, nil
	}
	remaining := hours * 60 // minutes
	cur := start
	for days := 0; days <= w.cfg.MaxHorizonDays; days++ {
		if w.active[cur.Weekday()] {
			from := minuteOfDay(cur)
			if from < float64(w.cfg.DayStartMinute) {
				from = float64(w.cfg.DayStartMinute)
			}
			capacity := float64(w.cfg.DayEndMinute) - from - float64(w.cfg.BreakMinutes)
			if capacity > 0 {
				if remaining <= capacity {
					return atMinute(cur, from+remaining), nil
				}
				remaining -= capacity
			}
		}
		cur = nextDayOpening(cur, w.cfg.DayStartMinute)
	}
	return time.Time{}, fmt.Errorf("%w: horizon of %d days exceeded", ErrSchedulingUnavailable, w.cfg.MaxHorizonDays)
}

func minuteOfDay(t time.Time) float64 {
	return float64(t.Hour()*60+t.Minute()) + float64(t.Second())/60
}

func atMinute(day time.Time, minute float64) time.Time {
	y, m, d := day.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	return midnight.Add(time.Duration(math.Round(minute*60)) * time.Second)
}

func nextDayOpening(t time.Time, startMinute int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, startMinute/60, startMinute%60, 0, 0, t.Location())
}
