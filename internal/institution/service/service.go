package service

import (
	"context"
	"errors"

	"parareg/internal/accesscontrol"
	"parareg/internal/audit"
	instmetrics "parareg/internal/institution/metrics"
	"parareg/internal/institution/models"
	"parareg/internal/institution/store"
	id "parareg/pkg/domain"
	dErrors "parareg/pkg/domain-errors"
	"parareg/pkg/platform/sentinel"
)

// Service manages the institution registry. Registration and verification
// are owner-only; both checks run before any store call so denials never
// touch state.
type Service struct {
	institutions store.Store
	access       *accesscontrol.Checker
	audit        *audit.Publisher
	metrics      *instmetrics.Metrics
}

func New(institutions store.Store, access *accesscontrol.Checker,
	auditPub *audit.Publisher, metrics *instmetrics.Metrics) *Service {
	return &Service{
		institutions: institutions,
		access:       access,
		audit:        auditPub,
		metrics:      metrics,
	}
}

// Register creates an unverified institution administered by the owner.
// Duplicate IDs are rejected; re-registration never overwrites.
func (s *Service) Register(ctx context.Context, instID id.InstitutionID, name string, caller id.Identity) error {
	if !s.access.IsOwner(caller) {
		return dErrors.New(dErrors.CodeNotAuthorized, "only the registry owner may register institutions")
	}

	inst, err := models.NewInstitution(instID, name, caller)
	if err != nil {
		return err
	}
	if err := s.institutions.Create(ctx, inst); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return dErrors.New(dErrors.CodeConflict, "institution id is already registered")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create institution")
	}

	s.audit.Emit(ctx, audit.Event{
		Actor:   caller.String(),
		Action:  audit.ActionInstitutionRegistered,
		Subject: instID.String(),
	})
	if s.metrics != nil {
		s.metrics.IncrementRegistered()
	}
	return nil
}

// Verify flips the institution's verified flag. Verifying twice is a no-op
// success; the flag never reverts.
func (s *Service) Verify(ctx context.Context, instID id.InstitutionID, caller id.Identity) error {
	if !s.access.IsOwner(caller) {
		return dErrors.New(dErrors.CodeNotAuthorized, "only the registry owner may verify institutions")
	}

	_, err := s.institutions.Execute(ctx, instID,
		func(inst *models.Institution) error {
			return inst.CanVerify()
		},
		func(inst *models.Institution) {
			inst.ApplyVerification()
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeInvalidInstitution, "institution does not exist")
		}
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			// Already verified: idempotent success, nothing to audit.
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify institution")
	}

	s.audit.Emit(ctx, audit.Event{
		Actor:   caller.String(),
		Action:  audit.ActionInstitutionVerified,
		Subject: instID.String(),
	})
	if s.metrics != nil {
		s.metrics.IncrementVerified()
	}
	return nil
}

// Get returns institution details.
func (s *Service) Get(ctx context.Context, instID id.InstitutionID) (*models.Institution, error) {
	inst, err := s.institutions.FindByID(ctx, instID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "institution not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load institution")
	}
	return inst, nil
}
