package store

import (
	"context"
	"sync"

	"parareg/internal/record/models"
	id "parareg/pkg/domain"
	"parareg/pkg/platform/sentinel"
)

// InMemory is the mutex-backed ledger used in development and as the test
// fake. One lock serializes every write, which is exactly the atomicity
// contract the interface demands; reads copy out so callers never alias
// ledger state.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.RecordID]*models.ParasiteRecord
	nextID  uint64
	seq     uint64
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.RecordID]*models.ParasiteRecord)}
}

func (s *InMemory) Append(_ context.Context, draft models.Draft) (*models.ParasiteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.commit(draft, 1, nil)
	return rec.Clone(), nil
}

func (s *InMemory) Supersede(_ context.Context, prevID id.RecordID, draft models.Draft) (*models.ParasiteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.records[prevID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := prev.CanSupersede(); err != nil {
		return nil, sentinel.ErrInvalidState
	}
	prev.ApplyArchive()

	rec := s.commit(draft, prev.Version+1, &prevID)
	return rec.Clone(), nil
}

// commit allocates the next ID, stamps the sequence, and inserts. Callers
// hold the write lock.
func (s *InMemory) commit(draft models.Draft, version uint64, prev *id.RecordID) *models.ParasiteRecord {
	s.nextID++
	s.seq++
	rec := &models.ParasiteRecord{
		ID:              id.RecordID(s.nextID),
		ParasiteName:    draft.ParasiteName,
		Classification:  draft.Classification,
		Location:        draft.Location,
		RecordedAt:      s.seq,
		Author:          draft.Author,
		MetadataHash:    draft.MetadataHash,
		Status:          models.StatusActive,
		Version:         version,
		PreviousVersion: prev,
	}
	s.records[rec.ID] = rec
	return rec
}

func (s *InMemory) FindByID(_ context.Context, recordID id.RecordID) (*models.ParasiteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *InMemory) History(_ context.Context, recordID id.RecordID) ([]*models.ParasiteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	// Version bounds the walk, so even a corrupted chain terminates.
	lineage := make([]*models.ParasiteRecord, 0, rec.Version)
	for steps := rec.Version; rec != nil && steps > 0; steps-- {
		lineage = append(lineage, rec.Clone())
		if rec.PreviousVersion == nil {
			break
		}
		rec = s.records[*rec.PreviousVersion]
	}
	return lineage, nil
}

func (s *InMemory) Total(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID, nil
}
