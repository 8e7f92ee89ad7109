package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/atelio/fieldops/config"
	"github.com/atelio/fieldops/core/model"
	"github.com/atelio/fieldops/core/projection"
	"github.com/atelio/fieldops/core/schedule"
	"github.com/atelio/fieldops/core/workload"
	"github.com/atelio/fieldops/infra/store"
)

var orderPath string

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project a delivery date for an order file",
	RunE:  projectOrder,
}

func init() {
	projectCmd.Flags().StringVarP(&orderPath, "order", "o", "order.json", "order file (JSON)")
	rootCmd.AddCommand(projectCmd)
}

type orderFile struct {
	OrderID             string           `json:"order_id"`
	LineItems           []model.LineItem `json:"line_items"`
	PrimaryTechnicianID string           `json:"primary_technician_id"`
	SupportTechnicianID string           `json:"support_technician_id"`
}

func projectOrder(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	data, err := os.ReadFile(orderPath)
	if err != nil {
		return fmt.Errorf("read order: %w", err)
	}
	var ord orderFile
	if err := json.Unmarshal(data, &ord); err != nil {
		return fmt.Errorf("parse order: %w", err)
	}
	if ord.PrimaryTechnicianID == "" {
		return fmt.Errorf("order file must name a primary technician")
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	ctx := cmd.Context()
	open, err := st.OpenOrders(ctx)
	if err != nil {
		return fmt.Errorf("open orders: %w", err)
	}
	snap := workload.Compute(open)

	defaultCal, err := cfg.Engine.Calendar.ToSchedule()
	if err != nil {
		return err
	}
	primary, err := calendarFor(cmd, st, defaultCal, ord.PrimaryTechnicianID)
	if err != nil {
		return err
	}
	var support *schedule.WorkCalendar
	if ord.SupportTechnicianID != "" {
		if support, err = calendarFor(cmd, st, defaultCal, ord.SupportTechnicianID); err != nil {
			return err
		}
	}

	now := time.Now()
	queued := snap.QueuedHours(ord.PrimaryTechnicianID)
	res, err := projection.Project(ord.LineItems, primary, support, now, queued, cfg.Engine.SupportReductionFactor)
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}

	cmd.Println(res.Breakdown)

	roster, err := st.Roster(ctx)
	if err != nil {
		return fmt.Errorf("roster: %w", err)
	}
	policy := workload.Policy{OverloadThresholdHours: cfg.Engine.OverloadThresholdHours}
	sg := workload.SuggestSupport(ord.PrimaryTechnicianID, res.Estimate.TotalHours, roster, snap, policy)
	if sg.Suggested {
		cmd.Printf("support suggestion: %s (%s)\n", sg.TechnicianID, sg.Reason)
	}
	return nil
}

func calendarFor(cmd *cobra.Command, st *store.SnapshotStore, fallback schedule.Config, technicianID string) (*schedule.WorkCalendar, error) {
	override, err := st.ScheduleOverride(cmd.Context(), technicianID)
	if err != nil {
		return nil, fmt.Errorf("schedule override for %s: %w", technicianID, err)
	}
	cfg := fallback
	if override != nil {
		cfg = *override
	}
	return schedule.NewWorkCalendar(cfg)
}
