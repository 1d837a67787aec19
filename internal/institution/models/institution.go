package models

import (
	id "parareg/pkg/domain"
	dErrors "parareg/pkg/domain-errors"
)

// Institution is a research organization whose members may write records
// once the institution is verified.
//
// Invariants:
//   - ID is unique, at most 50 characters
//   - Name is non-empty, at most 100 characters
//   - Verified flips false→true exactly once and never reverts
//   - Admin is set at registration and controls membership assignment
type Institution struct {
	ID       id.InstitutionID `json:"id"`
	Name     string           `json:"name"`
	Verified bool             `json:"verified"`
	Admin    id.Identity      `json:"admin"`
}

const maxNameLen = 100

// NewInstitution validates and constructs an unverified institution.
func NewInstitution(instID id.InstitutionID, name string, admin id.Identity) (*Institution, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "institution name must not be empty")
	}
	if len(name) > maxNameLen {
		return nil, dErrors.New(dErrors.CodeValidation, "institution name must be 100 characters or less")
	}
	if admin.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "institution admin identity is required")
	}
	return &Institution{
		ID:       instID,
		Name:     name,
		Verified: false,
		Admin:    admin,
	}, nil
}

// CanVerify reports whether verification would change state. Verifying an
// already-verified institution is a no-op success at the service layer.
func (i *Institution) CanVerify() error {
	if i.Verified {
		return dErrors.New(dErrors.CodeInvariantViolation, "institution is already verified")
	}
	return nil
}

// ApplyVerification marks the institution verified. One-way.
func (i *Institution) ApplyVerification() {
	i.Verified = true
}

// Clone returns an independent copy for store handout.
func (i *Institution) Clone() *Institution {
	cp := *i
	return &cp
}
