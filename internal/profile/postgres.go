package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Simplici0/crewpay/internal/salary"
)

// PgStore keeps profiles in PostgreSQL with the config as JSONB.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore returns a store over pool. Call EnsureSchema before first use.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureSchema creates the profiles table if it does not exist.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			config JSONB NOT NULL DEFAULT '{}'::jsonb
		)`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_created_at ON profiles(created_at)`,
	}

	for i, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("profiles schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

// Get returns the profile stored under id, or ErrNotFound.
func (s *PgStore) Get(ctx context.Context, id string) (Profile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at, config
		FROM profiles
		WHERE id = $1
	`, id)

	p, err := scanPgProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil && !p.Recovered {
		return Profile{}, fmt.Errorf("query profile: %w", err)
	}
	return p, err
}

// Put inserts or replaces the whole profile record.
func (s *PgStore) Put(ctx context.Context, p Profile) error {
	config, err := json.Marshal(p.Config)
	if err != nil {
		return fmt.Errorf("encode rate config: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO profiles (id, name, created_at, updated_at, config)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			config = EXCLUDED.config
	`, p.ID, p.Name, p.CreatedAt.UTC(), p.UpdatedAt.UTC(), config)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// List returns every profile, newest first.
func (s *PgStore) List(ctx context.Context) ([]Profile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, created_at, updated_at, config
		FROM profiles
		ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]Profile, 0)
	for rows.Next() {
		p, err := scanPgProfile(rows)
		if err != nil && !p.Recovered {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	sortNewestFirst(profiles)
	return profiles, nil
}

// Delete removes the profile stored under id, or returns ErrNotFound.
func (s *PgStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPgProfile(row pgx.Row) (Profile, error) {
	var (
		p   Profile
		cfg []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt, &cfg); err != nil {
		return Profile{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	config, err := salary.DecodeRateConfig(cfg)
	p.Config = config
	if err != nil {
		p.Recovered = true
		return p, fmt.Errorf("profile %s: %w", p.ID, err)
	}
	return p, nil
}
