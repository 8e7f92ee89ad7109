package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atelio/fieldops/core/schedule"
)

// EngineConfig groups the scheduling knobs shared by the API and the
// command-line tools.
type EngineConfig struct {
	Calendar CalendarConfig `json:"calendar"`
	// OverloadThresholdHours is the queued-work level above which a support
	// technician is suggested.
	OverloadThresholdHours float64 `json:"overload_threshold_hours"`
	// SupportReductionFactor shrinks the effective estimate when a support
	// technician is assigned. Expressed as a fraction, e.g. 0.005 for 0.5%.
	SupportReductionFactor float64 `json:"support_reduction_factor"`
}

// CalendarConfig is the human-editable form of a work calendar. Weekday names
// and clock times are converted to schedule.Config before use.
type CalendarConfig struct {
	Weekdays       []string `json:"weekdays"`
	DayStart       string   `json:"day_start"`
	DayEnd         string   `json:"day_end"`
	BreakMinutes   int      `json:"break_minutes"`
	MaxHorizonDays int      `json:"max_horizon_days"`
}

// SetDefaults applies sane defaults.
func (c *EngineConfig) SetDefaults() {
	if c.OverloadThresholdHours == 0 {
		c.OverloadThresholdHours = 16
	}
	if c.SupportReductionFactor == 0 {
		c.SupportReductionFactor = 0.005
	}
	c.Calendar.SetDefaults()
}

// Validate checks that the calendar converts to a usable schedule.
func (c EngineConfig) Validate() error {
	if c.OverloadThresholdHours < 0 {
		return fmt.Errorf("overload_threshold_hours must not be negative")
	}
	if _, err := c.Calendar.ToSchedule(); err != nil {
		return err
	}
	return nil
}

// SetDefaults applies the standard Monday-Friday 08:00-17:00 week with a
// one hour break.
func (c *CalendarConfig) SetDefaults() {
	if len(c.Weekdays) == 0 {
		c.Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}
	}
	if c.DayStart == "" {
		c.DayStart = "08:00"
	}
	if c.DayEnd == "" {
		c.DayEnd = "17:00"
	}
	if c.BreakMinutes == 0 {
		c.BreakMinutes = 60
	}
	if c.MaxHorizonDays == 0 {
		c.MaxHorizonDays = schedule.DefaultMaxHorizonDays
	}
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ToSchedule converts the textual calendar into a validated schedule config.
func (c CalendarConfig) ToSchedule() (schedule.Config, error) {
	var cfg schedule.Config
	for _, name := range c.Weekdays {
		day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return cfg, fmt.Errorf("unknown weekday %q", name)
		}
		cfg.Weekdays = append(cfg.Weekdays, day)
	}
	start, err := parseClock(c.DayStart)
	if err != nil {
		return cfg, fmt.Errorf("day_start: %w", err)
	}
	end, err := parseClock(c.DayEnd)
	if err != nil {
		return cfg, fmt.Errorf("day_end: %w", err)
	}
	cfg.DayStartMinute = start
	cfg.DayEndMinute = end
	cfg.BreakMinutes = c.BreakMinutes
	cfg.MaxHorizonDays = c.MaxHorizonDays
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time out of range: %q", s)
	}
	return h*60 + m, nil
}
