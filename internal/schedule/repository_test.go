package schedule

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// newTestDB creates an in-memory SQLite database with the schedules schema.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE schedules (
			id            TEXT PRIMARY KEY,
			device_id     TEXT NOT NULL,
			kind          TEXT NOT NULL,
			time_of_day   TEXT NOT NULL,
			weekdays      TEXT NOT NULL,
			amount        REAL NOT NULL,
			enabled       INTEGER NOT NULL DEFAULT 1,
			last_fired_at TEXT,
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating test schema: %v", err)
	}

	return db
}

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	s := validSchedule()
	s.Weekdays = []int{0, 2, 4}
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.TimeOfDay != "08:00" {
		t.Errorf("TimeOfDay = %q, want %q", got.TimeOfDay, "08:00")
	}
	if len(got.Weekdays) != 3 {
		t.Errorf("Weekdays = %v, want three days", got.Weekdays)
	}
	if !got.Enabled {
		t.Error("schedule should be enabled")
	}
	if got.LastFiredAt != nil {
		t.Error("new schedule should have no firing record")
	}
}

func TestSQLiteRepository_CreateInvalid(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))

	s := validSchedule()
	s.TimeOfDay = "noon"
	if err := repo.Create(context.Background(), s); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("Create() error = %v, want ErrInvalidSchedule", err)
	}
}

func TestSQLiteRepository_SetEnabled(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	s := validSchedule()
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.SetEnabled(ctx, s.ID, false); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}

	enabled, err := repo.ListEnabled(ctx)
	if err != nil {
		t.Fatalf("ListEnabled() error = %v", err)
	}
	if len(enabled) != 0 {
		t.Errorf("ListEnabled() = %d schedules, want 0", len(enabled))
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("List() = %d schedules, want 1", len(all))
	}

	if err := repo.SetEnabled(ctx, "ghost", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetEnabled() missing error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepository_MarkFired(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	s := validSchedule()
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	fired := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	if err := repo.MarkFired(ctx, s.ID, fired); err != nil {
		t.Fatalf("MarkFired() error = %v", err)
	}

	got, err := repo.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.LastFiredAt == nil || !got.LastFiredAt.Equal(fired) {
		t.Errorf("LastFiredAt = %v, want %v", got.LastFiredAt, fired)
	}
}

func TestSQLiteRepository_Delete(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	s := validSchedule()
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() repeated error = %v, want ErrNotFound", err)
	}
}
