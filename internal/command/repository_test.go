package command

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// newTestDB creates an in-memory SQLite database with the commands schema.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE commands (
			id          TEXT PRIMARY KEY,
			device_id   TEXT NOT NULL,
			kind        TEXT NOT NULL,
			value       REAL NOT NULL,
			payload     TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'pending',
			error       TEXT NOT NULL DEFAULT '',
			source      TEXT NOT NULL DEFAULT 'api',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating test schema: %v", err)
	}

	return db
}

func testCommand(id, deviceID string) *Command {
	return &Command{
		ID:       id,
		DeviceID: deviceID,
		Kind:     KindDispenseFood,
		Value:    50,
		Payload:  "F50",
		Status:   StatusPending,
		Source:   SourceAPI,
	}
}

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testCommand("cmd-1", "feeder-01")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "cmd-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("Status = %q, want %q", got.Status, StatusPending)
	}
	if got.Payload != "F50" {
		t.Errorf("Payload = %q, want %q", got.Payload, "F50")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestSQLiteRepository_GetMissing(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))

	if _, err := repo.GetByID(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepository_UpdateStatus(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testCommand("cmd-1", "feeder-01")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.UpdateStatus(ctx, "cmd-1", StatusFailed, "broker unreachable"); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "cmd-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != StatusFailed || got.Error != "broker unreachable" {
		t.Errorf("got status %q error %q, want failed with message", got.Status, got.Error)
	}

	if err := repo.UpdateStatus(ctx, "ghost", StatusFailed, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateStatus() missing error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepository_TransitionStatus(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testCommand("cmd-1", "feeder-01")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.UpdateStatus(ctx, "cmd-1", StatusProcessing, ""); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	applied, err := repo.TransitionStatus(ctx, "cmd-1", StatusProcessing, StatusCompleted, "")
	if err != nil {
		t.Fatalf("TransitionStatus() error = %v", err)
	}
	if !applied {
		t.Fatal("TransitionStatus() = false, want true")
	}

	// A second report loses the race and must not overwrite the
	// terminal state.
	applied, err = repo.TransitionStatus(ctx, "cmd-1", StatusProcessing, StatusFailed, "late report")
	if err != nil {
		t.Fatalf("TransitionStatus() repeat error = %v", err)
	}
	if applied {
		t.Error("TransitionStatus() applied to a terminal row")
	}

	got, _ := repo.GetByID(ctx, "cmd-1")
	if got.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", got.Status, StatusCompleted)
	}

	if _, err := repo.TransitionStatus(ctx, "ghost", StatusProcessing, StatusCompleted, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("TransitionStatus() missing error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepository_LatestByDeviceAndStatus(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"cmd-1", "cmd-2", "cmd-3"} {
		if err := repo.Create(ctx, testCommand(id, "feeder-01")); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}
	if err := repo.UpdateStatus(ctx, "cmd-1", StatusProcessing, ""); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if err := repo.UpdateStatus(ctx, "cmd-3", StatusProcessing, ""); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	got, err := repo.LatestByDeviceAndStatus(ctx, "feeder-01", StatusProcessing)
	if err != nil {
		t.Fatalf("LatestByDeviceAndStatus() error = %v", err)
	}
	if got.ID != "cmd-3" {
		t.Errorf("ID = %q, want cmd-3", got.ID)
	}

	if _, err := repo.LatestByDeviceAndStatus(ctx, "feeder-02", StatusProcessing); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestByDeviceAndStatus() missing error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepository_ListByDevice(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	for _, c := range []*Command{
		testCommand("cmd-1", "feeder-01"),
		testCommand("cmd-2", "feeder-01"),
		testCommand("cmd-3", "feeder-02"),
	} {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("Create(%s) error = %v", c.ID, err)
		}
	}

	got, err := repo.ListByDevice(ctx, "feeder-01", 10)
	if err != nil {
		t.Fatalf("ListByDevice() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListByDevice() returned %d commands, want 2", len(got))
	}

	all, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListRecent() returned %d commands, want 3", len(all))
	}
}
