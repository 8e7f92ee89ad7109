// Package store reads the order, roster and calendar records the engine
// consumes from a SQLite database. The engine never writes through it;
// insert helpers exist for fixtures and the order-creation caller.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/atelio/fieldops/core/model"
	"github.com/atelio/fieldops/core/schedule"
)

// SnapshotStore provides read-compute-discard snapshots of the scheduling
// inputs.
type SnapshotStore struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures schema.
func Open(path string) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schemaStmts := `CREATE TABLE IF NOT EXISTS technicians (
        id TEXT PRIMARY KEY,
        display_name TEXT NOT NULL
    );
    CREATE TABLE IF NOT EXISTS orders (
        id TEXT PRIMARY KEY,
        status TEXT NOT NULL,
        technician_id TEXT,
        estimated_hours REAL NOT NULL DEFAULT 0,
        created_at INTEGER NOT NULL,
        target_delivery_date INTEGER
    );
    CREATE TABLE IF NOT EXISTS schedule_overrides (
        technician_id TEXT PRIMARY KEY,
        weekdays TEXT NOT NULL,
        day_start_minute INTEGER NOT NULL,
        day_end_minute INTEGER NOT NULL,
        break_minutes INTEGER NOT NULL
    );`
	if _, err := db.Exec(schemaStmts); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SnapshotStore{db: db}, nil
}

// Close releases the database handle.
func (s *SnapshotStore) Close() error { return s.db.Close() }

// OpenOrders returns every order not in a terminal state.
func (s *SnapshotStore) OpenOrders(ctx context.Context) ([]model.OrderSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, COALESCE(technician_id, ''), estimated_hours, created_at, target_delivery_date
         FROM orders WHERE status NOT IN (?, ?, ?)`,
		string(model.StatusFinished), string(model.StatusCancelled), string(model.StatusRejected))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.OrderSummary
	for rows.Next() {
		var (
			o       model.OrderSummary
			status  string
			created int64
			target  sql.NullInt64
		)
		if err := rows.Scan(&o.ID, &status, &o.AssignedTechnicianID, &o.EstimatedHours, &created, &target); err != nil {
			return nil, err
		}
		o.Status = model.OrderStatus(status)
		o.CreatedAt = time.Unix(created, 0).UTC()
		if target.Valid {
			ts := time.Unix(target.Int64, 0).UTC()
			o.TargetDeliveryDate = &ts
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Roster returns all technicians ordered by id.
func (s *SnapshotStore) Roster(ctx context.Context) ([]model.Technician, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, display_name FROM technicians ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Technician
	for rows.Next() {
		var t model.Technician
		if err := rows.Scan(&t.ID, &t.DisplayName); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ScheduleOverride returns the technician's calendar override, or nil when
// the shared default calendar applies.
func (s *SnapshotStore) ScheduleOverride(ctx context.Context, technicianID string) (*schedule.Config, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT weekdays, day_start_minute, day_end_minute, break_minutes
         FROM schedule_overrides WHERE technician_id = ?`, technicianID)
	var (
		days string
		cfg  schedule.Config
	)
	err := row.Scan(&days, &cfg.DayStartMinute, &cfg.DayEndMinute, &cfg.BreakMinutes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cfg.Weekdays, err = parseWeekdays(days)
	if err != nil {
		return nil, fmt.Errorf("override for %s: %w", technicianID, err)
	}
	return &cfg, nil
}

// InsertTechnician adds one roster entry.
func (s *SnapshotStore) InsertTechnician(ctx context.Context, t model.Technician) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO technicians (id, display_name) VALUES (?, ?)`, t.ID, t.DisplayName)
	return err
}

// InsertOrder adds one order summary row. A missing id is generated.
func (s *SnapshotStore) InsertOrder(ctx context.Context, o model.OrderSummary) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	var target any
	if o.TargetDeliveryDate != nil {
		target = o.TargetDeliveryDate.Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (id, status, technician_id, estimated_hours, created_at, target_delivery_date)
         VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, string(o.Status), o.AssignedTechnicianID, o.EstimatedHours, o.CreatedAt.Unix(), target)
	return err
}

// UpsertScheduleOverride stores a per-technician calendar override.
func (s *SnapshotStore) UpsertScheduleOverride(ctx context.Context, technicianID string, cfg schedule.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schedule_overrides (technician_id, weekdays, day_start_minute, day_end_minute, break_minutes)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(technician_id) DO UPDATE SET
            weekdays = excluded.weekdays,
            day_start_minute = excluded.day_start_minute,
            day_end_minute = excluded.day_end_minute,
            break_minutes = excluded.break_minutes`,
		technicianID, formatWeekdays(cfg.Weekdays), cfg.DayStartMinute, cfg.DayEndMinute, cfg.BreakMinutes)
	return err
}

func formatWeekdays(days []time.Weekday) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

func parseWeekdays(s string) ([]time.Weekday, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]time.Weekday, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("bad weekday %q", p)
		}
		out = append(out, time.Weekday(n))
	}
	return out, nil
}
