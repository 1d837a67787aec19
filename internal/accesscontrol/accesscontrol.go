// Package accesscontrol centralizes the authorization predicates shared by
// the registry services. Every predicate is evaluated before any mutation so
// a denial leaves state untouched, and keeping them in one place stops the
// owner/admin/member branching from drifting between services.
package accesscontrol

import (
	"context"
	"errors"

	instmodels "parareg/internal/institution/models"
	id "parareg/pkg/domain"
	dErrors "parareg/pkg/domain-errors"
	"parareg/pkg/platform/sentinel"
)

// InstitutionDirectory is the read side of the institution table.
type InstitutionDirectory interface {
	FindByID(ctx context.Context, instID id.InstitutionID) (*instmodels.Institution, error)
}

// MembershipDirectory is the read side of the researcher membership table.
type MembershipDirectory interface {
	Find(ctx context.Context, identity id.Identity) (id.InstitutionID, error)
}

// Checker answers the three authorization questions the registry asks.
// It holds no mutable state; the owner identity is fixed at construction.
type Checker struct {
	owner        id.Identity
	institutions InstitutionDirectory
	memberships  MembershipDirectory
}

func NewChecker(owner id.Identity, institutions InstitutionDirectory, memberships MembershipDirectory) *Checker {
	return &Checker{owner: owner, institutions: institutions, memberships: memberships}
}

// IsOwner reports whether the caller is the registry owner.
func (c *Checker) IsOwner(caller id.Identity) bool {
	return caller == c.owner
}

// IsInstitutionAdmin reports whether the caller administers the given
// institution. An unknown institution yields CodeInvalidInstitution so
// callers can fail fast with the right kind.
func (c *Checker) IsInstitutionAdmin(ctx context.Context, caller id.Identity, instID id.InstitutionID) (bool, error) {
	inst, err := c.institutions.FindByID(ctx, instID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, dErrors.New(dErrors.CodeInvalidInstitution, "institution does not exist")
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load institution")
	}
	return inst.Admin == caller, nil
}

// IsOwnInstitutionAdmin reports whether the caller administers the
// institution the caller itself belongs to. This backs the record-update
// override. A caller with no membership is simply not an admin; a dangling
// membership likewise answers false rather than erroring.
func (c *Checker) IsOwnInstitutionAdmin(ctx context.Context, caller id.Identity) (bool, error) {
	instID, err := c.memberships.Find(ctx, caller)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load membership")
	}
	inst, err := c.institutions.FindByID(ctx, instID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load institution")
	}
	return inst.Admin == caller, nil
}

// VerifiedMembership returns the caller's institution when the caller has a
// membership and that institution is verified. Both the missing-membership
// and unverified-institution cases fail with CodeNotVerified: either way the
// caller may not write records yet.
func (c *Checker) VerifiedMembership(ctx context.Context, caller id.Identity) (id.InstitutionID, error) {
	instID, err := c.memberships.Find(ctx, caller)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotVerified, "caller has no institution membership")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load membership")
	}

	inst, err := c.institutions.FindByID(ctx, instID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Membership pointing at a deleted institution should not
			// happen; treat it as unverified rather than an internal fault.
			return "", dErrors.New(dErrors.CodeNotVerified, "caller's institution does not exist")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load institution")
	}
	if !inst.Verified {
		return "", dErrors.New(dErrors.CodeNotVerified, "caller's institution is not verified")
	}
	return instID, nil
}
