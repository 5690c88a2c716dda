package profile

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Simplici0/crewpay/internal/salary"
)

// failingStore returns err from every operation.
type failingStore struct {
	err error
}

func (s failingStore) Get(context.Context, string) (Profile, error) { return Profile{}, s.err }
func (s failingStore) Put(context.Context, Profile) error           { return s.err }
func (s failingStore) List(context.Context) ([]Profile, error)      { return nil, s.err }
func (s failingStore) Delete(context.Context, string) error         { return s.err }

func newTestService(store Store, now time.Time) *Service {
	svc := NewService(store)
	svc.now = func() time.Time { return now }
	return svc
}

func TestService_CreateUsesDefaults(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	svc := newTestService(store, now)

	p, err := svc.Create(context.Background(), "  Captain   Lin ")
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	require.Equal(t, "Captain Lin", p.Name)
	require.Equal(t, salary.DefaultRateConfig(), p.Config)
	require.True(t, now.Equal(p.CreatedAt))
	require.True(t, now.Equal(p.UpdatedAt))

	stored, err := store.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, p.Name, stored.Name)
}

func TestService_CreateBlankNameIsUntitled(t *testing.T) {
	svc := NewService(NewMemoryStore())

	p, err := svc.Create(context.Background(), "   ")
	require.NoError(t, err)
	require.Equal(t, "Untitled", p.Name)

	long, err := svc.Create(context.Background(), strings.Repeat("é", 100))
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("é", 80), long.Name)
}

func TestService_LoadNotFound(t *testing.T) {
	svc := NewService(NewMemoryStore())

	_, err := svc.Load(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_LoadFallsBackToDefaults(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(failingStore{err: errors.New("disk on fire")}, now)

	p, err := svc.Load(context.Background(), "abc")
	require.NoError(t, err)
	require.True(t, p.Recovered)
	require.Equal(t, "abc", p.ID)
	require.Equal(t, salary.DefaultRateConfig(), p.Config)
}

func TestService_LoadKeepsRecoveredMetadata(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	_, err := store.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, created_at, updated_at, config_json)
		VALUES ('bad', 'Night shift', '2026-02-01T08:00:00Z', '2026-02-01T08:00:00Z', '[]')
	`)
	require.NoError(t, err)

	p, err := NewService(store).Load(ctx, "bad")
	require.NoError(t, err)
	require.True(t, p.Recovered)
	require.Equal(t, "Night shift", p.Name)
	require.Equal(t, salary.DefaultRateConfig(), p.Config)
}

func TestService_SaveValidates(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()

	p, err := svc.Create(ctx, "Crew")
	require.NoError(t, err)

	p.Config.BHMins = 75
	_, err = svc.Save(ctx, p)
	var verr *salary.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	require.Equal(t, "bh_mins", verr.Fields[0].Field)

	stored, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 38, stored.Config.BHMins, "invalid config must not be persisted")
}

func TestService_UpdateConfigStampsUpdatedAt(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	svc := newTestService(store, created)
	ctx := context.Background()

	p, err := svc.Create(ctx, "Crew")
	require.NoError(t, err)

	later := created.Add(2 * time.Hour)
	svc.now = func() time.Time { return later }

	cfg := salary.DefaultRateConfig()
	cfg.WithdrawalCurrency = salary.TWD
	cfg.TransportTrips = 10

	updated, err := svc.UpdateConfig(ctx, p.ID, cfg)
	require.NoError(t, err)
	require.Equal(t, cfg, updated.Config)
	require.True(t, created.Equal(updated.CreatedAt))
	require.True(t, later.Equal(updated.UpdatedAt))

	_, err = svc.UpdateConfig(ctx, "missing", cfg)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_Rename(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	p, err := svc.Create(ctx, "Crew")
	require.NoError(t, err)

	renamed, err := svc.Rename(ctx, p.ID, "Purser")
	require.NoError(t, err)
	require.Equal(t, "Purser", renamed.Name)

	loaded, err := svc.Load(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Purser", loaded.Name)
}

func TestService_Delete(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	p, err := svc.Create(ctx, "Crew")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, p.ID))
	require.ErrorIs(t, svc.Delete(ctx, p.ID), ErrNotFound)
	require.Empty(t, svc.List(ctx))
}

func TestService_ListFallsBackToEmpty(t *testing.T) {
	svc := NewService(failingStore{err: errors.New("connection refused")})

	profiles := svc.List(context.Background())
	require.NotNil(t, profiles)
	require.Empty(t, profiles)
}

func TestService_SaveErrorIsReturned(t *testing.T) {
	boom := errors.New("read-only filesystem")
	svc := NewService(failingStore{err: boom})

	_, err := svc.Create(context.Background(), "Crew")
	require.ErrorIs(t, err, boom)

	_, err = svc.Save(context.Background(), Profile{ID: "x", Config: salary.DefaultRateConfig()})
	require.ErrorIs(t, err, boom)
}
