// Package database provides SQLite persistence for PetCare Core.
//
// This package wraps database/sql with lifecycle management, embedded
// migrations, and health checks. SQLite is the system of record for
// devices, command audit trails, feeding schedules, and notifications.
//
// # Features
//
//   - WAL mode for concurrent reads during writes
//   - Busy timeout to avoid "database is locked" errors
//   - Embedded schema migrations (applied in version order)
//   - Single-writer connection pool matching SQLite's locking model
//
// # Configuration
//
//	database:
//	  path: "./data/petcare.db"
//	  wal_mode: true
//	  busy_timeout: 5
//
// # Usage
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files live in the migrations/ package and are embedded into
// the binary via go:embed. Filenames follow the convention
// YYYYMMDD_HHMMSS_description.up.sql (with an optional .down.sql pair).
package database
