package schedule

import (
	"errors"
	"testing"
	"time"
)

func weekdayCfg() Config {
	return Config{
		Weekdays:       []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		DayStartMinute: 8 * 60,
		DayEndMinute:   17 * 60,
		BreakMinutes:   60,
	}
}

func mustCalendar(t *testing.T, cfg Config) *WorkCalendar {
	t.Helper()
	wc, err := NewWorkCalendar(cfg)
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	return wc
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"empty weekdays", func(c *Config) { c.Weekdays = nil }},
		{"start after end", func(c *Config) { c.DayStartMinute = 18 * 60 }},
		{"start equals end", func(c *Config) { c.DayStartMinute = c.DayEndMinute }},
		{"break eats capacity", func(c *Config) { c.BreakMinutes = 9 * 60 }},
		{"negative break", func(c *Config) { c.BreakMinutes = -1 }},
	}
	for _, tc := range cases {
		cfg := weekdayCfg()
		tc.mut(&cfg)
		if _, err := NewWorkCalendar(cfg); !errors.Is(err, ErrInvalidCalendar) {
			t.Errorf("%s: expected ErrInvalidCalendar, got %v", tc.name, err)
		}
	}
	if _, err := NewWorkCalendar(weekdayCfg()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestAdvanceZeroHours(t *testing.T) {
	wc := mustCalendar(t, weekdayCfg())
	start := time.Date(2025, 3, 8, 23, 45, 0, 0, time.UTC) // Saturday, outside the window
	got, err := wc.Advance(start, 0)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !got.Equal(start) {
		t.Fatalf("expected start unchanged, got %v", got)
	}
}

func TestAdvanceSameDay(t *testing.T) {
	wc := mustCalendar(t, weekdayCfg())
	start := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC) // Monday 08:00
	got, err := wc.Advance(start, 3)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	want := time.Date(2025, 3, 3, 11, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestAdvanceRollsIntoNextDay(t *testing.T) {
	wc := mustCalendar(t, weekdayCfg())
	// Monday 08:00 + 10h with 8h usable per day lands Tuesday 10:00.
	start := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	got, err := wc.Advance(start, 10)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	want := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestAdvanceSkipsWeekend(t *testing.T) {
	wc := mustCalendar(t, weekdayCfg())
	// Friday 16:00 leaves no usable time; 2h land Monday 10:00.
	start := time.Date(2025, 3, 7, 16, 0, 0, 0, time.UTC)
	got, err := wc.Advance(start, 2)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	want := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestAdvanceStartBeforeOpening(t *testing.T) {
	wc := mustCalendar(t, weekdayCfg())
	start := time.Date(2025, 3, 3, 5, 30, 0, 0, time.UTC) // Monday before opening
	got, err := wc.Advance(start, 1)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	want := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestAdvanceStartAfterClose(t *testing.T) {
	wc := mustCalendar(t, weekdayCfg())
	start := time.Date(2025, 3, 3, 20, 0, 0, 0, time.UTC) // Monday evening
	got, err := wc.Advance(start, 1)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	want := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestAdvanceFractionalHours(t *testing.T) {
	wc := mustCalendar(t, weekdayCfg())
	start := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	got, err := wc.Advance(start, 1.5)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	want := time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestAdvanceLandsInBusinessWindow(t *testing.T) {
	cfg := weekdayCfg()
	wc := mustCalendar(t, cfg)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, hours := range []float64{0.25, 1, 7.9, 8, 8.1, 23, 40, 160} {
		got, err := wc.Advance(start, hours)
		if err != nil {
			t.Fatalf("advance %v: %v", hours, err)
		}
		wd := got.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			t.Errorf("advance %v landed on %v", hours, wd)
		}
		minute := got.Hour()*60 + got.Minute()
		if minute < cfg.DayStartMinute || minute > cfg.DayEndMinute {
			t.Errorf("advance %v landed at minute %d outside window", hours, minute)
		}
	}
}

func TestAdvanceHorizonGuard(t *testing.T) {
	cfg := weekdayCfg()
	cfg.MaxHorizonDays = 10
	wc := mustCalendar(t, cfg)
	start := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	if _, err := wc.Advance(start, 1000); !errors.Is(err, ErrSchedulingUnavailable) {
		t.Fatalf("expected ErrSchedulingUnavailable, got %v", err)
	}
}

func TestSharesActiveDay(t *testing.T) {
	wc := mustCalendar(t, weekdayCfg())
	weekend := weekdayCfg()
	weekend.Weekdays = []time.Weekday{time.Saturday, time.Sunday}
	other := mustCalendar(t, weekend)
	if wc.SharesActiveDay(other) {
		t.Fatalf("disjoint calendars reported overlap")
	}
	if !wc.SharesActiveDay(wc) {
		t.Fatalf("identical calendars reported no overlap")
	}
	if wc.SharesActiveDay(nil) {
		t.Fatalf("nil calendar reported overlap")
	}
}

func TestDailyCapacityHours(t *testing.T) {
	wc := mustCalendar(t, weekdayCfg())
	if got := wc.DailyCapacityHours(); got != 8 {
		t.Fatalf("expected 8 got %v", got)
	}
}
