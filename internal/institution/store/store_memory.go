package store

import (
	"context"
	"sync"

	"parareg/internal/institution/models"
	id "parareg/pkg/domain"
	"parareg/pkg/platform/sentinel"
)

// InMemory backs the institution table with a mutex-guarded map.
type InMemory struct {
	mu           sync.RWMutex
	institutions map[id.InstitutionID]*models.Institution
}

func NewInMemory() *InMemory {
	return &InMemory{institutions: make(map[id.InstitutionID]*models.Institution)}
}

func (s *InMemory) Create(_ context.Context, inst *models.Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.institutions[inst.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.institutions[inst.ID] = inst.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, instID id.InstitutionID) (*models.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.institutions[instID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return inst.Clone(), nil
}

func (s *InMemory) Execute(_ context.Context, instID id.InstitutionID,
	validate func(*models.Institution) error,
	apply func(*models.Institution)) (*models.Institution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.institutions[instID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(inst); err != nil {
		return nil, err
	}
	apply(inst)
	return inst.Clone(), nil
}
