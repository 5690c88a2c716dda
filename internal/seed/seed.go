// Package seed prepares the profile store on startup.
package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/Simplici0/crewpay/internal/profile"
)

// Config contains the values required by startup seed.
type Config struct {
	// ProfileName is the profile guaranteed to exist after Run. Empty disables seeding.
	ProfileName string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts   int
	ProfileID string
}

// Run executes the startup seed in an idempotent way: a profile named cfg.ProfileName is
// created with default rates unless one with that name already exists.
func Run(ctx context.Context, store profile.Store, cfg Config) (Stats, error) {
	name := strings.TrimSpace(cfg.ProfileName)
	if name == "" {
		return Stats{}, nil
	}

	existing, err := store.List(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list profiles: %w", err)
	}
	for _, p := range existing {
		if strings.EqualFold(p.Name, name) {
			return Stats{ProfileID: p.ID}, nil
		}
	}

	p, err := profile.NewService(store).Create(ctx, name)
	if err != nil {
		return Stats{}, fmt.Errorf("seed default profile: %w", err)
	}
	return Stats{Inserts: 1, ProfileID: p.ID}, nil
}
