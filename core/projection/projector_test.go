package projection

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/atelio/fieldops/core/model"
	"github.com/atelio/fieldops/core/schedule"
)

func weekdayCalendar(t *testing.T) *schedule.WorkCalendar {
	t.Helper()
	wc, err := schedule.NewWorkCalendar(schedule.Config{
		Weekdays:       []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		DayStartMinute: 8 * 60,
		DayEndMinute:   17 * 60,
		BreakMinutes:   60,
	})
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	return wc
}

func TestProjectEndToEnd(t *testing.T) {
	// Mon-Fri 08:00-17:00 with a 60m break leaves 8h usable per day.
	// 10 effective hours placed Monday 08:00 land Tuesday 10:00.
	wc := weekdayCalendar(t)
	now := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	items := []model.LineItem{{ServiceCategoryID: "install", Quantity: 1, HoursPerUnit: 10}}

	res, err := Project(items, wc, nil, now, 0, DefaultSupportReductionFactor)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	want := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	if !res.DeliveryAt.Equal(want) {
		t.Fatalf("expected %v got %v", want, res.DeliveryAt)
	}
	if res.EffectiveHours != 10 {
		t.Fatalf("expected 10 effective hours got %v", res.EffectiveHours)
	}
}

func TestProjectPlacesOrderBehindQueue(t *testing.T) {
	wc := weekdayCalendar(t)
	now := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	items := []model.LineItem{{ServiceCategoryID: "repair", Quantity: 1, HoursPerUnit: 2}}

	res, err := Project(items, wc, nil, now, 8, 0)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	// 8 queued hours exhaust Monday; work starts Tuesday 08:00(+) and
	// the 2h order delivers Tuesday 10:00.
	want := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	if !res.DeliveryAt.Equal(want) {
		t.Fatalf("expected %v got %v", want, res.DeliveryAt)
	}
}

func TestProjectSupportReduction(t *testing.T) {
	wc := weekdayCalendar(t)
	now := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	items := []model.LineItem{{ServiceCategoryID: "install", Quantity: 1, HoursPerUnit: 10}}

	res, err := Project(items, wc, weekdayCalendar(t), now, 0, 0.1)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if math.Abs(res.EffectiveHours-9) > 1e-9 {
		t.Fatalf("expected 9 effective hours got %v", res.EffectiveHours)
	}
	if !strings.Contains(res.Breakdown, "support reduction") {
		t.Fatalf("breakdown missing support line: %q", res.Breakdown)
	}
}

func TestProjectClampsReductionFactor(t *testing.T) {
	wc := weekdayCalendar(t)
	now := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	items := []model.LineItem{{ServiceCategoryID: "install", Quantity: 1, HoursPerUnit: 4}}

	res, err := Project(items, wc, weekdayCalendar(t), now, 0, 2.0)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if res.EffectiveHours <= 0 {
		t.Fatalf("factor clamp failed, effective hours %v", res.EffectiveHours)
	}

	res, err = Project(items, wc, weekdayCalendar(t), now, 0, -0.5)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if res.EffectiveHours != 4 {
		t.Fatalf("negative factor should be ignored, got %v", res.EffectiveHours)
	}
}

func TestProjectBreakdownContent(t *testing.T) {
	wc := weekdayCalendar(t)
	now := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	items := []model.LineItem{
		{ServiceCategoryID: "install", Quantity: 1, HoursPerUnit: 4},
		{ServiceCategoryID: "clean", Quantity: 3, HoursPerUnit: 1, SharedTimeEligible: true},
	}

	res, err := Project(items, wc, nil, now, 5, 0)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	for _, want := range []string{"base labor: 7.0h", "shared-time discount: -1.6h", "queued ahead: 5.0h", "estimated delivery:"} {
		if !strings.Contains(res.Breakdown, want) {
			t.Errorf("breakdown missing %q:\n%s", want, res.Breakdown)
		}
	}
}

func TestProjectSupportAvailabilityNote(t *testing.T) {
	wc := weekdayCalendar(t)
	weekend, err := schedule.NewWorkCalendar(schedule.Config{
		Weekdays:       []time.Weekday{time.Saturday, time.Sunday},
		DayStartMinute: 9 * 60,
		DayEndMinute:   13 * 60,
	})
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	now := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	items := []model.LineItem{{ServiceCategoryID: "install", Quantity: 1, HoursPerUnit: 2}}

	res, err := Project(items, wc, weekend, now, 0, 0.005)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if !strings.Contains(res.Breakdown, "shares no work day") {
		t.Fatalf("expected availability note:\n%s", res.Breakdown)
	}
}

func TestProjectMissingPrimaryCalendar(t *testing.T) {
	now := time.Now()
	_, err := Project(nil, nil, nil, now, 0, 0)
	if !errors.Is(err, schedule.ErrSchedulingUnavailable) {
		t.Fatalf("expected ErrSchedulingUnavailable got %v", err)
	}
}

func TestProjectHorizonFailurePropagates(t *testing.T) {
	cfg := schedule.Config{
		Weekdays:       []time.Weekday{time.Monday},
		DayStartMinute: 8 * 60,
		DayEndMinute:   9 * 60,
		MaxHorizonDays: 7,
	}
	wc, err := schedule.NewWorkCalendar(cfg)
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	items := []model.LineItem{{ServiceCategoryID: "install", Quantity: 1, HoursPerUnit: 100}}
	_, err = Project(items, wc, nil, time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC), 0, 0)
	if !errors.Is(err, schedule.ErrSchedulingUnavailable) {
		t.Fatalf("expected ErrSchedulingUnavailable got %v", err)
	}
}

func TestProjectInvalidItems(t *testing.T) {
	wc := weekdayCalendar(t)
	items := []model.LineItem{{ServiceCategoryID: "bad", Quantity: -1, HoursPerUnit: 1}}
	_, err := Project(items, wc, nil, time.Now(), 0, 0)
	if !errors.Is(err, model.ErrInvalidLineItem) {
		t.Fatalf("expected ErrInvalidLineItem got %v", err)
	}
}
