package profile

import (
	"context"
	"sync"
)

// MemoryStore keeps profiles in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]Profile)}
}

// Get returns the profile stored under id, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

// Put inserts or replaces the whole profile record.
func (s *MemoryStore) Put(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.Recovered = false
	s.profiles[p.ID] = p
	return nil
}

// List returns every profile, newest first.
func (s *MemoryStore) List(_ context.Context) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, p)
	}
	sortNewestFirst(profiles)
	return profiles, nil
}

// Delete removes the profile stored under id, or returns ErrNotFound.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return ErrNotFound
	}
	delete(s.profiles, id)
	return nil
}
