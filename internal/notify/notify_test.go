package notify

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// newTestDB creates an in-memory SQLite database with the notifications schema.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE notifications (
			id           TEXT PRIMARY KEY,
			level        TEXT NOT NULL,
			kind         TEXT NOT NULL,
			device_id    TEXT NOT NULL DEFAULT '',
			message      TEXT NOT NULL,
			acknowledged INTEGER NOT NULL DEFAULT 0,
			created_at   TEXT NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating test schema: %v", err)
	}

	return db
}

// ─── Repository ───

func TestSQLiteRepository_CreateAndList(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	n := New(LevelWarning, KindLowFood, "habitat-01", "food level at 12%")
	if err := repo.Create(ctx, &n); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	recent, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("ListRecent() = %d notifications, want 1", len(recent))
	}
	if recent[0].Kind != KindLowFood || recent[0].Level != LevelWarning {
		t.Errorf("got %+v, want low_food warning", recent[0])
	}
	if recent[0].Acknowledged {
		t.Error("new notification should be unacknowledged")
	}
}

func TestSQLiteRepository_Acknowledge(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	n := New(LevelCritical, KindTemperatureBand, "habitat-01", "temperature 31.2C above band")
	if err := repo.Create(ctx, &n); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Acknowledge(ctx, n.ID); err != nil {
		t.Fatalf("Acknowledge() error = %v", err)
	}

	open, err := repo.ListUnacknowledged(ctx)
	if err != nil {
		t.Fatalf("ListUnacknowledged() error = %v", err)
	}
	if len(open) != 0 {
		t.Errorf("ListUnacknowledged() = %d, want 0", len(open))
	}

	if err := repo.Acknowledge(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Acknowledge() missing error = %v, want ErrNotFound", err)
	}
}

// ─── Queue ───

func TestQueue_PersistsAndBroadcasts(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	q := NewQueue(repo, 8, nil)

	var mu sync.Mutex
	var seen []Notification
	q.SetBroadcast(func(n Notification) {
		mu.Lock()
		seen = append(seen, n)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	q.Publish(New(LevelInfo, KindDeviceOnline, "feeder-01", "feeder back online"))
	q.Publish(New(LevelWarning, KindLowWater, "habitat-01", "water level at 8%"))

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("broadcast did not receive both events")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done

	recent, err := repo.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("persisted %d notifications, want 2", len(recent))
	}
}

func TestQueue_SetBroadcastWhileRunning(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	q := NewQueue(repo, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	// Installing the sink after the consumer has started must be
	// honoured for subsequent events.
	var mu sync.Mutex
	var seen []Notification
	q.SetBroadcast(func(n Notification) {
		mu.Lock()
		seen = append(seen, n)
		mu.Unlock()
	})

	q.Publish(New(LevelWarning, KindLowFood, "habitat-01", "food level at 12%"))

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("late-installed broadcast did not receive the event")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done
}

func TestQueue_DropsWhenFull(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	q := NewQueue(repo, 2, nil)

	// No consumer running: the third publish overflows and is dropped
	// without blocking.
	for i := 0; i < 3; i++ {
		q.Publish(New(LevelInfo, KindDeviceOnline, "feeder-01", "event"))
	}

	if q.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", q.Pending())
	}
}

func TestQueue_DrainsOnShutdown(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	q := NewQueue(repo, 8, nil)

	q.Publish(New(LevelInfo, KindDeviceOnline, "feeder-01", "event"))
	q.Publish(New(LevelInfo, KindDeviceOffline, "feeder-01", "event"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Run(ctx) // returns immediately, draining queued events

	recent, err := repo.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("persisted %d notifications after drain, want 2", len(recent))
	}
}
