package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLiteStore keeps one row per profile in the profiles table created by the migrations
// package.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore returns a store over an open, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get returns the profile stored under id, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at, config_json
		FROM profiles
		WHERE id = ?
	`, id)

	p, err := scanSQLiteProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil && !p.Recovered {
		return Profile{}, fmt.Errorf("query profile: %w", err)
	}
	return p, err
}

// Put inserts or replaces the whole profile record.
func (s *SQLiteStore) Put(ctx context.Context, p Profile) error {
	config, err := json.Marshal(p.Config)
	if err != nil {
		return fmt.Errorf("encode rate config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, created_at, updated_at, config_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			config_json = excluded.config_json
	`, p.ID, p.Name, formatTime(p.CreatedAt), formatTime(p.UpdatedAt), string(config))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// List returns every profile, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at, config_json
		FROM profiles
		ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]Profile, 0)
	for rows.Next() {
		p, err := scanSQLiteProfile(rows)
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
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSQLiteProfile reads one row. A row whose stored fields cannot be decoded comes back with
// Recovered set together with the decode error.
func scanSQLiteProfile(row rowScanner) (Profile, error) {
	var (
		rec fileRecord
		id  string
		cfg string
	)
	if err := row.Scan(&id, &rec.Name, &rec.CreatedAt, &rec.UpdatedAt, &cfg); err != nil {
		return Profile{}, err
	}
	rec.Config = json.RawMessage(cfg)
	return rec.profile(id)
}
