package migrations

import (
	"path/filepath"
	"testing"

	"github.com/Simplici0/crewpay/internal/db"
)

func TestUpCreatesProfilesTableAndIsRepeatable(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "migrate-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	for i := 0; i < 2; i++ {
		if err := Up(database); err != nil {
			t.Fatalf("run migrations (iteration=%d): %v", i, err)
		}
	}

	var count int
	if err := database.QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
		t.Fatalf("query profiles table: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty profiles table, got %d rows", count)
	}

	version, err := Version(database)
	if err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected schema version 1, got %d", version)
	}
}
