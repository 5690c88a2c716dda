package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Simplici0/crewpay/internal/salary"
)

func TestSQLiteStore_BadConfigRowIsRecovered(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, created_at, updated_at, config_json)
		VALUES ('bad', 'Broken', '2026-02-01T08:00:00Z', '2026-02-01T08:00:00Z', '{not json')
	`)
	require.NoError(t, err)

	got, err := store.Get(ctx, "bad")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
	require.True(t, got.Recovered)
	require.Equal(t, salary.DefaultRateConfig(), got.Config)

	profiles, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	require.Equal(t, "Broken", profiles[0].Name)
}

func TestSQLiteStore_PartialConfigUsesDefaults(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, created_at, updated_at, config_json)
		VALUES ('old', 'Old', '2026-02-01T08:00:00Z', '2026-02-01T08:00:00Z', '{"transport_trips": 9}')
	`)
	require.NoError(t, err)

	got, err := store.Get(ctx, "old")
	require.NoError(t, err)

	want := salary.DefaultRateConfig()
	want.TransportTrips = 9
	require.Equal(t, want, got.Config)
}
