package command

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository persists command records.
type Repository interface {
	Create(ctx context.Context, cmd *Command) error
	GetByID(ctx context.Context, id string) (*Command, error)
	ListRecent(ctx context.Context, limit int) ([]Command, error)
	ListByDevice(ctx context.Context, deviceID string, limit int) ([]Command, error)

	// UpdateStatus unconditionally sets a command's status and error.
	UpdateStatus(ctx context.Context, id string, status Status, errMsg string) error

	// TransitionStatus sets status only when the row is still in the
	// from state, and reports whether the transition applied. This is
	// how out-of-band status reports avoid overwriting a terminal state.
	TransitionStatus(ctx context.Context, id string, from, to Status, errMsg string) (bool, error)

	// LatestByDeviceAndStatus returns the newest command for a device
	// in the given status, or ErrNotFound.
	LatestByDeviceAndStatus(ctx context.Context, deviceID string, status Status) (*Command, error)
}

const commandColumns = "id, device_id, kind, value, payload, status, error, source, created_at, updated_at"

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

func scanCommand(s scanner) (*Command, error) {
	var c Command
	var createdAt, updatedAt string

	err := s.Scan(&c.ID, &c.DeviceID, &c.Kind, &c.Value, &c.Payload,
		&c.Status, &c.Error, &c.Source, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if c.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &c, nil
}

// Create inserts a new command record.
func (r *SQLiteRepository) Create(ctx context.Context, cmd *Command) error {
	now := time.Now().UTC()
	cmd.CreatedAt = now
	cmd.UpdatedAt = now

	query := `INSERT INTO commands (` + commandColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		cmd.ID, cmd.DeviceID, cmd.Kind, cmd.Value, cmd.Payload,
		cmd.Status, cmd.Error, cmd.Source,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting command %s: %w", cmd.ID, err)
	}
	return nil
}

// GetByID returns the command with the given ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Command, error) {
	query := `SELECT ` + commandColumns + ` FROM commands WHERE id = ?`
	cmd, err := scanCommand(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying command %s: %w", id, err)
	}
	return cmd, nil
}

// ListRecent returns the newest commands across all devices.
func (r *SQLiteRepository) ListRecent(ctx context.Context, limit int) ([]Command, error) {
	query := `SELECT ` + commandColumns + ` FROM commands
	          ORDER BY created_at DESC, id DESC LIMIT ?`
	return r.queryCommands(ctx, query, limit)
}

// ListByDevice returns the newest commands for one device.
func (r *SQLiteRepository) ListByDevice(ctx context.Context, deviceID string, limit int) ([]Command, error) {
	query := `SELECT ` + commandColumns + ` FROM commands
	          WHERE device_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`
	return r.queryCommands(ctx, query, deviceID, limit)
}

// UpdateStatus unconditionally sets a command's status and error message.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status Status, errMsg string) error {
	query := `UPDATE commands SET status = ?, error = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, status, errMsg, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating command %s: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update of command %s: %w", id, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// TransitionStatus conditionally moves a command from one status to
// another. Returns false without error when the row exists but has
// already left the from state.
func (r *SQLiteRepository) TransitionStatus(ctx context.Context, id string, from, to Status, errMsg string) (bool, error) {
	query := `UPDATE commands SET status = ?, error = ?, updated_at = ?
	          WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, query, to, errMsg, time.Now().UTC().Format(time.RFC3339), id, from)
	if err != nil {
		return false, fmt.Errorf("transitioning command %s: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking transition of command %s: %w", id, err)
	}
	if rows > 0 {
		return true, nil
	}

	// Distinguish a lost race from a missing row.
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// LatestByDeviceAndStatus returns the newest command for a device in
// the given status.
func (r *SQLiteRepository) LatestByDeviceAndStatus(ctx context.Context, deviceID string, status Status) (*Command, error) {
	query := `SELECT ` + commandColumns + ` FROM commands
	          WHERE device_id = ? AND status = ?
	          ORDER BY created_at DESC, id DESC LIMIT 1`
	cmd, err := scanCommand(r.db.QueryRowContext(ctx, query, deviceID, status))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest %s command for %s: %w", status, deviceID, err)
	}
	return cmd, nil
}

func (r *SQLiteRepository) queryCommands(ctx context.Context, query string, args ...any) ([]Command, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying commands: %w", err)
	}
	defer rows.Close()

	var out []Command
	for rows.Next() {
		cmd, err := scanCommand(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning command row: %w", err)
		}
		out = append(out, *cmd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating command rows: %w", err)
	}
	return out, nil
}
