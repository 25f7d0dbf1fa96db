package notify

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository persists notifications.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListRecent(ctx context.Context, limit int) ([]Notification, error)
	ListUnacknowledged(ctx context.Context) ([]Notification, error)
	Acknowledge(ctx context.Context, id string) error
}

const notificationColumns = "id, level, kind, device_id, message, acknowledged, created_at"

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

func scanNotification(s scanner) (*Notification, error) {
	var n Notification
	var acknowledged int
	var createdAt string

	err := s.Scan(&n.ID, &n.Level, &n.Kind, &n.DeviceID, &n.Message, &acknowledged, &createdAt)
	if err != nil {
		return nil, err
	}

	n.Acknowledged = acknowledged != 0
	if n.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &n, nil
}

// Create inserts a notification.
func (r *SQLiteRepository) Create(ctx context.Context, n *Notification) error {
	query := `INSERT INTO notifications (` + notificationColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`
	ack := 0
	if n.Acknowledged {
		ack = 1
	}
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.Level, n.Kind, n.DeviceID, n.Message, ack,
		n.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting notification %s: %w", n.ID, err)
	}
	return nil
}

// ListRecent returns the newest notifications.
func (r *SQLiteRepository) ListRecent(ctx context.Context, limit int) ([]Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
	          ORDER BY created_at DESC, id DESC LIMIT ?`
	return r.queryNotifications(ctx, query, limit)
}

// ListUnacknowledged returns notifications awaiting acknowledgment.
func (r *SQLiteRepository) ListUnacknowledged(ctx context.Context) ([]Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
	          WHERE acknowledged = 0 ORDER BY created_at DESC, id DESC`
	return r.queryNotifications(ctx, query)
}

// Acknowledge marks a notification as seen.
func (r *SQLiteRepository) Acknowledge(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET acknowledged = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("acknowledging notification %s: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking acknowledgment of %s: %w", id, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) queryNotifications(ctx context.Context, query string, args ...any) ([]Notification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning notification row: %w", err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notification rows: %w", err)
	}
	return out, nil
}
