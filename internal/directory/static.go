// ABOUTME: In-memory directory and catalog backed by fixed maps
// ABOUTME: Used by tests and local development where no upstream services run

package directory

import (
	"context"
	"sync"

	"github.com/lodgekeep/lodgekeep/internal/lease"
)

// Static serves users and properties from in-memory maps. Safe for
// concurrent use.
type Static struct {
	mu         sync.RWMutex
	users      map[string]User
	properties map[string]Property
}

// NewStatic creates an empty static directory.
func NewStatic() *Static {
	return &Static{
		users:      make(map[string]User),
		properties: make(map[string]Property),
	}
}

// AddUser registers a user record.
func (s *Static) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// AddProperty registers a property record.
func (s *Static) AddProperty(p Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[p.ID] = p
}

// ResolveUser implements IdentityDirectory.
func (s *Static) ResolveUser(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, lease.Errf(lease.KindNotFound, "user %s not found", id)
	}
	return &u, nil
}

// ResolveProperty implements PropertyCatalog.
func (s *Static) ResolveProperty(ctx context.Context, id string) (*Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.properties[id]
	if !ok {
		return nil, lease.Errf(lease.KindNotFound, "property %s not found", id)
	}
	return &p, nil
}
