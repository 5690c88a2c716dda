package db

import (
	"path/filepath"
	"testing"
)

func TestOpenEnablesWALAndForeignKeys(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "open-test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()

	var mode string
	if err := database.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}

	var fk int
	if err := database.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("read foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Fatalf("foreign_keys = %d, want 1", fk)
	}
}
