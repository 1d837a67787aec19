package store

import (
	"context"

	"parareg/internal/record/models"
	id "parareg/pkg/domain"
)

// Store is the append-only record ledger.
//
// Append and Supersede are single serializable units: ID allocation, the
// predecessor status flip, and the new version insert commit together or not
// at all. Two concurrent Supersede calls on the same lineage cannot both
// observe the predecessor as active; exactly one wins and the other gets
// sentinel.ErrInvalidState.
//
// Committed versions are immutable. The ledger sequence (RecordedAt) advances
// once per committed write.
type Store interface {
	// Append allocates the next global ID and commits a version-1 record.
	Append(ctx context.Context, draft models.Draft) (*models.ParasiteRecord, error)

	// Supersede archives the active record prev and commits its successor
	// in one unit. Returns sentinel.ErrNotFound when prev is unknown and
	// sentinel.ErrInvalidState when prev is no longer active.
	Supersede(ctx context.Context, prev id.RecordID, draft models.Draft) (*models.ParasiteRecord, error)

	// FindByID returns one version, or sentinel.ErrNotFound.
	FindByID(ctx context.Context, recordID id.RecordID) (*models.ParasiteRecord, error)

	// History returns the full lineage of recordID newest→oldest, following
	// PreviousVersion until nil. sentinel.ErrNotFound when unknown.
	History(ctx context.Context, recordID id.RecordID) ([]*models.ParasiteRecord, error)

	// Total returns the current allocation counter value.
	Total(ctx context.Context) (uint64, error)
}
