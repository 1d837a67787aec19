package store

import (
	"context"

	"parareg/internal/institution/models"
	id "parareg/pkg/domain"
)

// Store persists institutions keyed by their caller-chosen ID.
type Store interface {
	// Create inserts a new institution. Returns sentinel.ErrAlreadyUsed when
	// the ID is taken; re-registration never overwrites.
	Create(ctx context.Context, inst *models.Institution) error

	// FindByID returns the institution or sentinel.ErrNotFound.
	FindByID(ctx context.Context, instID id.InstitutionID) (*models.Institution, error)

	// Execute runs validate-then-mutate atomically: the store holds its lock
	// (mutex or FOR UPDATE) across both callbacks so state transitions are
	// checked against current state. Returns the updated institution.
	Execute(ctx context.Context, instID id.InstitutionID,
		validate func(*models.Institution) error,
		apply func(*models.Institution)) (*models.Institution, error)
}
