package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/atelio/fieldops/config"
	"github.com/atelio/fieldops/core/priority"
	"github.com/atelio/fieldops/infra/store"
)

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Print the open orders grouped by attention tier",
	RunE:  triageOrders,
}

func init() {
	rootCmd.AddCommand(triageCmd)
}

func triageOrders(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	open, err := st.OpenOrders(cmd.Context())
	if err != nil {
		return fmt.Errorf("open orders: %w", err)
	}

	now := time.Now()
	type row struct {
		id      string
		tier    priority.Tier
		created time.Time
	}
	rows := make([]row, 0, len(open))
	for _, o := range open {
		rows = append(rows, row{id: o.ID, tier: priority.Classify(o.CreatedAt, now, o.TargetDeliveryDate), created: o.CreatedAt})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].tier != rows[j].tier {
			return rows[i].tier > rows[j].tier
		}
		return rows[i].created.Before(rows[j].created)
	})

	counts := make(map[priority.Tier]int)
	for _, r := range rows {
		counts[r.tier]++
		cmd.Printf("%-10s %-36s created %s\n", r.tier.Label(), r.id, r.created.Format("2006-01-02 15:04"))
	}
	cmd.Println()
	for _, tier := range priority.Tiers() {
		if counts[tier] > 0 {
			cmd.Printf("%s: %d\n", tier.Label(), counts[tier])
		}
	}
	return nil
}
