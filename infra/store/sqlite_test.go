package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelio/fieldops/core/model"
	"github.com/atelio/fieldops/core/schedule"
)

func openTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	s, err := Open(t.TempDir() + "/snapshot.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenOrdersFiltersTerminal(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.InsertOrder(ctx, model.OrderSummary{
		ID: "o1", Status: model.StatusApproved, AssignedTechnicianID: "t1", EstimatedHours: 5, CreatedAt: now,
	}))
	require.NoError(t, s.InsertOrder(ctx, model.OrderSummary{
		ID: "o2", Status: model.StatusFinished, AssignedTechnicianID: "t1", EstimatedHours: 9, CreatedAt: now,
	}))
	require.NoError(t, s.InsertOrder(ctx, model.OrderSummary{
		ID: "o3", Status: model.StatusCancelled, EstimatedHours: 2, CreatedAt: now,
	}))

	open, err := s.OpenOrders(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "o1", open[0].ID)
	assert.Equal(t, now, open[0].CreatedAt)
	assert.Nil(t, open[0].TargetDeliveryDate)
}

func TestOpenOrdersTargetDate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	target := now.Add(72 * time.Hour)

	require.NoError(t, s.InsertOrder(ctx, model.OrderSummary{
		ID: "o1", Status: model.StatusDraft, CreatedAt: now, TargetDeliveryDate: &target,
	}))

	open, err := s.OpenOrders(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.NotNil(t, open[0].TargetDeliveryDate)
	assert.Equal(t, target, *open[0].TargetDeliveryDate)
}

func TestRoster(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertTechnician(ctx, model.Technician{ID: "t2", DisplayName: "Bea"}))
	require.NoError(t, s.InsertTechnician(ctx, model.Technician{ID: "t1", DisplayName: "Ada"}))

	roster, err := s.Roster(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "t1", roster[0].ID)
	assert.Equal(t, "t2", roster[1].ID)
}

func TestScheduleOverrideRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	got, err := s.ScheduleOverride(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, got, "expected nil override before upsert")

	cfg := schedule.Config{
		Weekdays:       []time.Weekday{time.Tuesday, time.Thursday, time.Saturday},
		DayStartMinute: 7 * 60,
		DayEndMinute:   15 * 60,
		BreakMinutes:   30,
	}
	require.NoError(t, s.UpsertScheduleOverride(ctx, "t1", cfg))

	got, err = s.ScheduleOverride(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cfg.Weekdays, got.Weekdays)
	assert.Equal(t, cfg.DayStartMinute, got.DayStartMinute)

	// Overwrite keeps a single row per technician.
	cfg.BreakMinutes = 45
	require.NoError(t, s.UpsertScheduleOverride(ctx, "t1", cfg))
	got, err = s.ScheduleOverride(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 45, got.BreakMinutes)
}

func TestUpsertScheduleOverrideRejectsInvalid(t *testing.T) {
	s := openTestStore(t)
	err := s.UpsertScheduleOverride(context.Background(), "t1", schedule.Config{})
	assert.Error(t, err)
}
