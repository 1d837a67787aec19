// Package researcher maintains the membership directory mapping a researcher
// identity to its institution. Assignment is an administrative operation,
// gated on the registry owner or the target institution's admin.
package researcher

import (
	"context"
	"errors"

	"parareg/internal/accesscontrol"
	"parareg/internal/audit"
	instmetrics "parareg/internal/institution/metrics"
	id "parareg/pkg/domain"
	dErrors "parareg/pkg/domain-errors"
	"parareg/pkg/platform/sentinel"
)

// Service wraps the membership table with admin-gated assignment.
type Service struct {
	memberships Store
	access      *accesscontrol.Checker
	audit       *audit.Publisher
	metrics     *instmetrics.Metrics
}

func NewService(memberships Store, access *accesscontrol.Checker,
	auditPub *audit.Publisher, metrics *instmetrics.Metrics) *Service {
	return &Service{
		memberships: memberships,
		access:      access,
		audit:       auditPub,
		metrics:     metrics,
	}
}

// SetMembership assigns identity to the institution. Only the registry
// owner or that institution's admin may assign; the institution must exist.
func (s *Service) SetMembership(ctx context.Context, identity id.Identity, instID id.InstitutionID, caller id.Identity) error {
	if identity.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "researcher identity is required")
	}

	// IsInstitutionAdmin doubles as the existence check: an unknown
	// institution fails with CodeInvalidInstitution before any write.
	isAdmin, err := s.access.IsInstitutionAdmin(ctx, caller, instID)
	if err != nil {
		return err
	}
	if !s.access.IsOwner(caller) && !isAdmin {
		return dErrors.New(dErrors.CodeNotAuthorized, "only the registry owner or the institution admin may assign membership")
	}

	if err := s.memberships.Set(ctx, identity, instID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set membership")
	}

	s.audit.Emit(ctx, audit.Event{
		Actor:   caller.String(),
		Action:  audit.ActionMembershipAssigned,
		Subject: identity.String() + "->" + instID.String(),
	})
	if s.metrics != nil {
		s.metrics.IncrementMemberships()
	}
	return nil
}

// MembershipOf returns the institution the identity belongs to.
func (s *Service) MembershipOf(ctx context.Context, identity id.Identity) (id.InstitutionID, error) {
	instID, err := s.memberships.Find(ctx, identity)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "no membership for identity")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load membership")
	}
	return instID, nil
}
