package database

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Config{
		Path:        filepath.Join(tmpDir, "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	}

	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if db.Path() != cfg.Path {
		t.Errorf("Path() = %q, want %q", db.Path(), cfg.Path)
	}

	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Config{
		Path:        filepath.Join(tmpDir, "nested", "dir", "test.db"),
		BusyTimeout: 5,
	}

	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
}

func TestDB_Close(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := Open(Config{Path: filepath.Join(tmpDir, "test.db"), BusyTimeout: 5})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	// Closing a nil-wrapped DB is a no-op
	empty := &DB{}
	if err := empty.Close(); err != nil {
		t.Errorf("Close() on empty DB error = %v", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantUp      bool
		wantOK      bool
	}{
		{
			name:        "valid up migration",
			filename:    "20260305_120000_initial_schema.up.sql",
			wantVersion: "20260305_120000",
			wantUp:      true,
			wantOK:      true,
		},
		{
			name:        "valid down migration",
			filename:    "20260305_120000_initial_schema.down.sql",
			wantVersion: "20260305_120000",
			wantUp:      false,
			wantOK:      true,
		},
		{
			name:     "not sql",
			filename: "readme.md",
			wantOK:   false,
		},
		{
			name:     "missing direction",
			filename: "20260305_120000_initial_schema.sql",
			wantOK:   false,
		},
		{
			name:     "too few parts",
			filename: "schema.up.sql",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("parseMigrationFilename(%q) ok = %v, want %v", tt.filename, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion {
				t.Errorf("version = %q, want %q", version, tt.wantVersion)
			}
			if isUp != tt.wantUp {
				t.Errorf("isUp = %v, want %v", isUp, tt.wantUp)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	got := extractMigrationName("20260305_120000_initial_schema.up.sql")
	if got != "initial_schema" {
		t.Errorf("extractMigrationName() = %q, want %q", got, "initial_schema")
	}
}
