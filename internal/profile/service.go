package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Simplici0/crewpay/internal/logger"
	"github.com/Simplici0/crewpay/internal/salary"
)

const (
	defaultName   = "Untitled"
	maxNameLength = 80
)

// Service creates, loads and saves profiles on top of a Store. Read failures other than a
// missing profile never reach the caller: the profile falls back to default values instead.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService returns a Service over store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create stores a new profile with default rates under a fresh id.
func (s *Service) Create(ctx context.Context, name string) (Profile, error) {
	now := s.now().UTC()
	p := Profile{
		ID:        NewID(),
		Name:      normalizeName(name),
		CreatedAt: now,
		UpdatedAt: now,
		Config:    salary.DefaultRateConfig(),
	}

	if err := s.store.Put(ctx, p); err != nil {
		return Profile{}, fmt.Errorf("create profile: %w", err)
	}
	logger.Log.Info().Str("profile_id", p.ID).Str("name", p.Name).Msg("Profile created")
	return p, nil
}

// Load returns the stored profile. ErrNotFound is returned as is; any other store error is
// logged and a default record with Recovered set is returned.
func (s *Service) Load(ctx context.Context, id string) (Profile, error) {
	p, err := s.store.Get(ctx, id)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, ErrNotFound) {
		return Profile{}, err
	}

	logger.Log.Warn().Err(err).Str("profile_id", id).Msg("Failed to load profile, using defaults")
	if p.ID == "" {
		now := s.now().UTC()
		p = Profile{ID: id, CreatedAt: now, UpdatedAt: now}
	}
	p.Config = salary.DefaultRateConfig()
	p.Recovered = true
	return p, nil
}

// Save validates the config, stamps UpdatedAt and replaces the stored record.
func (s *Service) Save(ctx context.Context, p Profile) (Profile, error) {
	if err := p.Config.Validate(); err != nil {
		return p, err
	}

	p.Name = normalizeName(p.Name)
	p.UpdatedAt = s.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = p.UpdatedAt
	}
	p.Recovered = false

	if err := s.store.Put(ctx, p); err != nil {
		return p, fmt.Errorf("save profile: %w", err)
	}
	logger.Log.Debug().Str("profile_id", p.ID).Msg("Profile saved")
	return p, nil
}

// UpdateConfig replaces the rate config of an existing profile.
func (s *Service) UpdateConfig(ctx context.Context, id string, cfg salary.RateConfig) (Profile, error) {
	p, err := s.Load(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	p.Config = cfg
	return s.Save(ctx, p)
}

// Rename changes the display name of an existing profile.
func (s *Service) Rename(ctx context.Context, id, name string) (Profile, error) {
	p, err := s.Load(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	p.Name = name
	return s.Save(ctx, p)
}

// Delete removes a profile as a whole.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete profile: %w", err)
	}
	logger.Log.Info().Str("profile_id", id).Msg("Profile deleted")
	return nil
}

// List returns all profiles, newest first. A failing store yields an empty list.
func (s *Service) List(ctx context.Context) []Profile {
	profiles, err := s.store.List(ctx)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to list profiles")
		return []Profile{}
	}
	return profiles
}

func normalizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return defaultName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name
}
