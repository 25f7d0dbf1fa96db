package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository persists schedules.
type Repository interface {
	Create(ctx context.Context, s *Schedule) error
	GetByID(ctx context.Context, id string) (*Schedule, error)
	List(ctx context.Context) ([]Schedule, error)
	ListEnabled(ctx context.Context) ([]Schedule, error)
	SetEnabled(ctx context.Context, id string, enabled bool) error
	Delete(ctx context.Context, id string) error
	MarkFired(ctx context.Context, id string, firedAt time.Time) error
}

const scheduleColumns = "id, device_id, kind, time_of_day, weekdays, amount, enabled, last_fired_at, created_at, updated_at"

// SQLiteRepository implements Repository over SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over the given database handle.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSchedule(s scanner) (*Schedule, error) {
	var sch Schedule
	var weekdays string
	var enabled int
	var lastFired sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&sch.ID, &sch.DeviceID, &sch.Kind, &sch.TimeOfDay, &weekdays,
		&sch.Amount, &enabled, &lastFired, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	sch.Enabled = enabled != 0
	if sch.Weekdays, err = decodeWeekdays(weekdays); err != nil {
		return nil, fmt.Errorf("parsing weekdays: %w", err)
	}
	if lastFired.Valid {
		t, err := time.Parse(time.RFC3339, lastFired.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_fired_at: %w", err)
		}
		sch.LastFiredAt = &t
	}
	if sch.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if sch.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &sch, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Create validates and inserts a new schedule.
func (r *SQLiteRepository) Create(ctx context.Context, s *Schedule) error {
	if err := s.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	query := `INSERT INTO schedules (id, device_id, kind, time_of_day, weekdays, amount, enabled, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.DeviceID, s.Kind, s.TimeOfDay, encodeWeekdays(s.Weekdays),
		s.Amount, boolToInt(s.Enabled),
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting schedule %s: %w", s.ID, err)
	}
	return nil
}

// GetByID returns the schedule with the given ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = ?`
	sch, err := scanSchedule(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying schedule %s: %w", id, err)
	}
	return sch, nil
}

// List returns all schedules ordered by time of day.
func (r *SQLiteRepository) List(ctx context.Context) ([]Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules ORDER BY time_of_day, id`
	return r.querySchedules(ctx, query)
}

// ListEnabled returns the schedules the evaluator should consider.
func (r *SQLiteRepository) ListEnabled(ctx context.Context) ([]Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE enabled = 1 ORDER BY time_of_day, id`
	return r.querySchedules(ctx, query)
}

// SetEnabled toggles a schedule on or off.
func (r *SQLiteRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	query := `UPDATE schedules SET enabled = ?, updated_at = ? WHERE id = ?`
	return r.execOnRow(ctx, query, boolToInt(enabled), time.Now().UTC().Format(time.RFC3339), id)
}

// Delete removes a schedule.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	return r.execOnRow(ctx, `DELETE FROM schedules WHERE id = ?`, id)
}

// MarkFired records the last firing time.
func (r *SQLiteRepository) MarkFired(ctx context.Context, id string, firedAt time.Time) error {
	query := `UPDATE schedules SET last_fired_at = ?, updated_at = ? WHERE id = ?`
	now := time.Now().UTC().Format(time.RFC3339)
	return r.execOnRow(ctx, query, firedAt.UTC().Format(time.RFC3339), now, id)
}

func (r *SQLiteRepository) execOnRow(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating schedule: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking schedule update: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) querySchedules(ctx context.Context, query string, args ...any) ([]Schedule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying schedules: %w", err)
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		sch, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning schedule row: %w", err)
		}
		out = append(out, *sch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schedule rows: %w", err)
	}
	return out, nil
}
