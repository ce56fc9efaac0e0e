package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"horas/internal/core"
	"horas/internal/store"
)

// Store keeps entries and profiles in process memory. It is the default
// backend for local runs and tests, standing in for the browser-local
// persistence of the first product iteration.
type Store struct {
	mu       sync.Mutex
	entries  []core.TimeEntry
	profiles map[string]core.Profile
}

func New() *Store {
	return &Store{profiles: make(map[string]core.Profile)}
}

// NewSeeded builds a store pre-loaded with the given profiles, for
// single-user deployments configured from the environment.
func NewSeeded(profiles ...core.Profile) *Store {
	s := New()
	for _, p := range profiles {
		s.profiles[p.ID] = p
	}
	return s
}

// Append validates and stores the entry, assigning identity and
// bookkeeping timestamps.
func (s *Store) Append(_ context.Context, e core.TimeEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	now := time.Now()
	e.ID = uuid.NewString()
	e.CreatedAt = now
	e.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return e.ID, nil
}

// ListEntries returns a snapshot of the owner's entries, newest date
// first. Callers own the returned slice.
func (s *Store) ListEntries(_ context.Context, ownerID string) ([]core.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.TimeEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// UpdateEntry replaces a stored entry in place, preserving identity and
// creation time.
func (s *Store) UpdateEntry(_ context.Context, e core.TimeEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, old := range s.entries {
		if old.ID == e.ID {
			e.CreatedAt = old.CreatedAt
			e.UpdatedAt = time.Now()
			s.entries[i] = e
			return nil
		}
	}
	return fmt.Errorf("entry %s: %w", e.ID, store.ErrNotFound)
}

func (s *Store) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("entry %s: %w", id, store.ErrNotFound)
}

func (s *Store) GetProfile(_ context.Context, id string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return core.Profile{}, fmt.Errorf("profile %s: %w", id, store.ErrNotFound)
	}
	return p, nil
}
