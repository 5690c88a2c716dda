package seed

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/Simplici0/crewpay/internal/db"
	"github.com/Simplici0/crewpay/internal/migrations"
	"github.com/Simplici0/crewpay/internal/profile"
	"github.com/Simplici0/crewpay/internal/salary"
)

func TestRunIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	store := profile.NewSQLiteStore(database)
	cfg := Config{ProfileName: "My Salary"}

	var firstID string
	for i := 0; i < 10; i++ {
		stats, err := Run(context.Background(), store, cfg)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 1 {
				t.Fatalf("expected 1 insert in first run, got %d", stats.Inserts)
			}
			firstID = stats.ProfileID
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
		if stats.ProfileID != firstID {
			t.Fatalf("expected seeded profile %q, got %q", firstID, stats.ProfileID)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM profiles WHERE name = ?`, "My Salary", 1)

	p, err := store.Get(context.Background(), firstID)
	if err != nil {
		t.Fatalf("get seeded profile: %v", err)
	}
	if p.Config != salary.DefaultRateConfig() {
		t.Fatalf("expected default rate config, got %+v", p.Config)
	}
}

func TestRunMatchesNameCaseInsensitively(t *testing.T) {
	store := profile.NewMemoryStore()
	svc := profile.NewService(store)
	existing, err := svc.Create(context.Background(), "my salary")
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}

	stats, err := Run(context.Background(), store, Config{ProfileName: "  My Salary "})
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if stats.Inserts != 0 || stats.ProfileID != existing.ID {
		t.Fatalf("expected existing profile %q to be reused, got %+v", existing.ID, stats)
	}
}

func TestRunDisabled(t *testing.T) {
	store := profile.NewMemoryStore()

	stats, err := Run(context.Background(), store, Config{})
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if stats.Inserts != 0 {
		t.Fatalf("expected no inserts, got %d", stats.Inserts)
	}

	profiles, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	if len(profiles) != 0 {
		t.Fatalf("expected empty store, got %d profiles", len(profiles))
	}
}

func assertCount(t *testing.T, database *sql.DB, query string, arg any, expected int) {
	t.Helper()

	var count int
	if err := database.QueryRow(query, arg).Scan(&count); err != nil {
		t.Fatalf("query count: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
