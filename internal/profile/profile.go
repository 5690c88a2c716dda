// Package profile persists named rate configurations keyed by an opaque profile id.
package profile

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/crewpay/internal/salary"
)

var (
	// ErrNotFound is returned when no profile is stored under the requested id.
	ErrNotFound = errors.New("profile not found")
	// ErrLocked is returned when the profiles document is encrypted and no passphrase was given.
	ErrLocked = errors.New("profiles document is encrypted and no passphrase is configured")
	// ErrBadPassphrase is returned when the configured passphrase cannot decrypt the profiles document.
	ErrBadPassphrase = errors.New("passphrase does not decrypt the profiles document")
)

// Profile is a named rate configuration plus identity metadata.
type Profile struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Config    salary.RateConfig `json:"config"`

	// Recovered is set when the stored record could not be read and defaults were used.
	Recovered bool `json:"-"`
}

// Store is a key-value store of profiles. Put replaces the whole record; concurrent writers to
// the same id resolve as last write wins.
type Store interface {
	Get(ctx context.Context, id string) (Profile, error)
	Put(ctx context.Context, p Profile) error
	List(ctx context.Context) ([]Profile, error)
	Delete(ctx context.Context, id string) error
}

// NewID returns a random opaque profile identifier.
func NewID() string {
	return uuid.NewString()
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// sortNewestFirst orders by creation time descending, then id for stability.
func sortNewestFirst(profiles []Profile) {
	slices.SortFunc(profiles, func(a, b Profile) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
