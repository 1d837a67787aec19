package geostats

import (
	"context"
	"sync"

	"parareg/pkg/platform/sentinel"
)

// InMemoryStore keeps aggregates in a mutex-guarded map, lazily creating
// regions on first increment.
type InMemoryStore struct {
	mu    sync.RWMutex
	stats map[string]*GeoStat
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{stats: make(map[string]*GeoStat)}
}

func (s *InMemoryStore) Increment(_ context.Context, region string, observedAt uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stat, ok := s.stats[region]
	if !ok {
		stat = &GeoStat{Region: region}
		s.stats[region] = stat
	}
	stat.TotalCases++
	if observedAt > stat.LastUpdated {
		stat.LastUpdated = observedAt
	}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, region string) (*GeoStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stat, ok := s.stats[region]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *stat
	return &cp, nil
}
