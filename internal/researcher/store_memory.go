package researcher

import (
	"context"
	"sync"

	id "parareg/pkg/domain"
	"parareg/pkg/platform/sentinel"
)

// InMemoryStore keeps memberships in a mutex-guarded map.
type InMemoryStore struct {
	mu          sync.RWMutex
	memberships map[id.Identity]id.InstitutionID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{memberships: make(map[id.Identity]id.InstitutionID)}
}

func (s *InMemoryStore) Set(_ context.Context, identity id.Identity, instID id.InstitutionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships[identity] = instID
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, identity id.Identity) (id.InstitutionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	instID, ok := s.memberships[identity]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return instID, nil
}
