// Package geostats keeps per-region aggregates of record-creation events.
// Writes arrive only from the record service after a ledger commit; the
// package exposes no caller-facing mutation.
package geostats

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "parareg/pkg/domain-errors"
	"parareg/pkg/platform/sentinel"
)

var incrementsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "parareg_geo_increments_total",
	Help: "Total number of geo aggregate increments",
})

// Service fronts the aggregate store.
type Service struct {
	stats Store
}

func NewService(stats Store) *Service {
	return &Service{stats: stats}
}

// Increment bumps the region's counter. Lazily creates the region; never
// fails on first sight of a new region.
func (s *Service) Increment(ctx context.Context, region string, observedAt uint64) error {
	if err := s.stats.Increment(ctx, region, observedAt); err != nil {
		return err
	}
	incrementsTotal.Inc()
	return nil
}

// Get returns the aggregate for a region.
func (s *Service) Get(ctx context.Context, region string) (*GeoStat, error) {
	stat, err := s.stats.Get(ctx, region)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no records for region")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load geo stat")
	}
	return stat, nil
}
