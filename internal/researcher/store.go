package researcher

import (
	"context"

	id "parareg/pkg/domain"
)

// Store is the researcher → institution membership table. One membership per
// identity; assignment overwrites (researchers can move institutions).
type Store interface {
	// Set records or replaces the membership for identity.
	Set(ctx context.Context, identity id.Identity, instID id.InstitutionID) error

	// Find returns the institution the identity belongs to, or
	// sentinel.ErrNotFound when no membership exists.
	Find(ctx context.Context, identity id.Identity) (id.InstitutionID, error)
}
