package profile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Simplici0/crewpay/internal/db"
	"github.com/Simplici0/crewpay/internal/migrations"
	"github.com/Simplici0/crewpay/internal/salary"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "profiles-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, migrations.Up(database))
	return NewSQLiteStore(database)
}

func newEncryptedFileStore(t *testing.T) *FileStore {
	t.Helper()

	store, err := NewFileStore(filepath.Join(t.TempDir(), "profiles.json"), "correct horse battery")
	require.NoError(t, err)
	store.SetWorkFactor(10)
	return store
}

func testProfile(id string, created time.Time) Profile {
	cfg := salary.DefaultRateConfig()
	cfg.BHHours = 72
	cfg.WithdrawalCurrency = salary.TWD
	return Profile{
		ID:        id,
		Name:      "Captain " + id,
		CreatedAt: created,
		UpdatedAt: created.Add(time.Minute),
		Config:    cfg,
	}
}

// runStoreContract exercises the behaviour every Store implementation shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(context.Background(), "nope")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("put then get round trips", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		created := time.Date(2026, 3, 1, 10, 0, 0, 123456000, time.UTC)
		p := testProfile("a", created)

		require.NoError(t, store.Put(ctx, p))

		got, err := store.Get(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, p.Name, got.Name)
		require.Equal(t, p.Config, got.Config)
		require.True(t, p.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", got.CreatedAt, p.CreatedAt)
		require.True(t, p.UpdatedAt.Equal(got.UpdatedAt), "updated_at %v != %v", got.UpdatedAt, p.UpdatedAt)
		require.False(t, got.Recovered)
	})

	t.Run("put replaces the whole record", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		p := testProfile("a", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
		require.NoError(t, store.Put(ctx, p))

		p.Name = "Renamed"
		p.Config = salary.DefaultRateConfig()
		p.Config.BaseSalary = 20000
		require.NoError(t, store.Put(ctx, p))

		got, err := store.Get(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, "Renamed", got.Name)
		require.Equal(t, p.Config, got.Config)
	})

	t.Run("list is newest first", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, store.Put(ctx, testProfile("first", base)))
		require.NoError(t, store.Put(ctx, testProfile("third", base.Add(48*time.Hour))))
		require.NoError(t, store.Put(ctx, testProfile("second", base.Add(24*time.Hour))))

		profiles, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, profiles, 3)
		require.Equal(t, []string{"third", "second", "first"}, []string{profiles[0].ID, profiles[1].ID, profiles[2].ID})
	})

	t.Run("delete removes the profile", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Put(ctx, testProfile("a", time.Now().UTC())))

		require.NoError(t, store.Delete(ctx, "a"))
		_, err := store.Get(ctx, "a")
		require.ErrorIs(t, err, ErrNotFound)
		require.ErrorIs(t, store.Delete(ctx, "a"), ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestFileStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		store, err := NewFileStore(filepath.Join(t.TempDir(), "profiles.json"), "")
		require.NoError(t, err)
		return store
	})
}

func TestEncryptedFileStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return newEncryptedFileStore(t) })
}

func TestSQLiteStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return newSQLiteStore(t) })
}
