package store

import (
	"context"
	"sort"
	"sync"

	"scanpoint/internal/registry/models"
	"scanpoint/pkg/platform/sentinel"
)

// InMemory is a map-backed identity store for development and tests.
type InMemory struct {
	mu         sync.RWMutex
	identities map[string]models.Identity
}

// NewInMemory returns an empty in-memory identity store.
func NewInMemory() *InMemory {
	return &InMemory{identities: make(map[string]models.Identity)}
}

// Insert adds an identity, rejecting an existing identifier with
// sentinel.ErrDuplicateKey. The stored fields of an existing identity are
// never disturbed by a rejected insert.
func (s *InMemory) Insert(_ context.Context, identity models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[identity.Identifier]; ok {
		return sentinel.ErrDuplicateKey
	}
	s.identities[identity.Identifier] = identity
	return nil
}

// InsertIfAbsent adds an identity unless the identifier already exists, in
// which case it is a no-op. Used by seeding.
func (s *InMemory) InsertIfAbsent(_ context.Context, identity models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[identity.Identifier]; ok {
		return nil
	}
	s.identities[identity.Identifier] = identity
	return nil
}

// Find returns the identity for an exact identifier match, or
// sentinel.ErrNotFound.
func (s *InMemory) Find(_ context.Context, identifier string) (models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[identifier]
	if !ok {
		return models.Identity{}, sentinel.ErrNotFound
	}
	return identity, nil
}

// Delete removes an identity. An absent identifier is a no-op.
func (s *InMemory) Delete(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.identities, identifier)
	return nil
}

// List returns every identity ordered by identifier, so a given store state
// always lists the same way.
func (s *InMemory) List(_ context.Context) ([]models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		out = append(out, identity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out, nil
}

// Count returns the number of stored identities.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.identities), nil
}

// Clear removes every identity.
func (s *InMemory) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities = make(map[string]models.Identity)
	return nil
}
