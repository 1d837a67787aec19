package geostats

import (
	"context"
)

// Store is the region-keyed aggregate table. Increment is invoked only from
// the record service after a successful ledger commit; it is never exposed
// as a caller-facing write.
type Store interface {
	// Increment lazily creates the region row and bumps its counter.
	// observedAt is the ledger sequence value of the committing write.
	Increment(ctx context.Context, region string, observedAt uint64) error

	// Get returns the aggregate or sentinel.ErrNotFound for an untouched
	// region.
	Get(ctx context.Context, region string) (*GeoStat, error)
}
