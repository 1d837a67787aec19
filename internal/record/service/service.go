package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parareg/internal/accesscontrol"
	"parareg/internal/audit"
	recmetrics "parareg/internal/record/metrics"
	"parareg/internal/record/models"
	"parareg/internal/record/store"
	id "parareg/pkg/domain"
	dErrors "parareg/pkg/domain-errors"
	"parareg/pkg/platform/sentinel"
)

// GeoAggregator receives one increment per committed create, whether genesis
// or update-derived. observedAt is the ledger sequence of the commit. Pass
// nil when the ledger store commits the increment itself.
type GeoAggregator interface {
	Increment(ctx context.Context, region string, observedAt uint64) error
}

// Service is the versioned record ledger's write and query surface.
// Authorization is evaluated before any mutation: a denied call leaves the
// ledger, the counters, and the aggregates untouched.
type Service struct {
	records store.Store
	access  *accesscontrol.Checker
	geo     GeoAggregator
	audit   *audit.Publisher
	metrics *recmetrics.Metrics
	logger  *slog.Logger
}

func New(records store.Store, access *accesscontrol.Checker, geo GeoAggregator,
	auditPub *audit.Publisher, metrics *recmetrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		records: records,
		access:  access,
		geo:     geo,
		audit:   auditPub,
		metrics: metrics,
		logger:  logger,
	}
}

// Input carries the caller-supplied record fields.
type Input struct {
	ParasiteName   string
	Classification string
	Location       string
	MetadataHash   id.MetadataHash
}

// AddRecord commits a version-1 record for a caller with a verified
// institution membership and bumps the target region's aggregate.
func (s *Service) AddRecord(ctx context.Context, input Input, caller id.Identity) (id.RecordID, error) {
	start := time.Now()

	draft, err := models.NewDraft(input.ParasiteName, input.Classification, input.Location, input.MetadataHash, caller)
	if err != nil {
		return 0, err
	}
	if _, err := s.access.VerifiedMembership(ctx, caller); err != nil {
		s.denied(err)
		return 0, err
	}

	rec, err := s.records.Append(ctx, draft)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit record")
	}
	s.aggregate(ctx, rec)

	s.audit.Emit(ctx, audit.Event{
		Actor:   caller.String(),
		Action:  audit.ActionRecordCreated,
		Subject: rec.ID.String(),
	})
	if s.metrics != nil {
		s.metrics.IncrementCreated()
		s.metrics.ObserveAdd(start)
	}
	return rec.ID, nil
}

// UpdateRecord archives the active record existingID and commits its
// successor in one serializable unit. The caller must be the record's author
// or the admin of the caller's own institution. Of two racing updates on one
// lineage exactly one succeeds; the other observes the archived predecessor.
func (s *Service) UpdateRecord(ctx context.Context, existingID id.RecordID, input Input, caller id.Identity) (id.RecordID, error) {
	start := time.Now()

	draft, err := models.NewDraft(input.ParasiteName, input.Classification, input.Location, input.MetadataHash, caller)
	if err != nil {
		return 0, err
	}

	existing, err := s.records.FindByID(ctx, existingID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeInvalidRecord, "record does not exist")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	if !existing.IsActive() {
		return 0, dErrors.New(dErrors.CodeInvalidRecord, "record is not active")
	}

	if err := s.authorizeUpdate(ctx, existing, caller); err != nil {
		s.denied(err)
		return 0, err
	}

	rec, err := s.records.Supersede(ctx, existingID, draft)
	if err != nil {
		// A concurrent update may have archived the predecessor between the
		// read above and the critical section; that loser fails the same way
		// as an update of a stale id.
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrInvalidState) {
			return 0, dErrors.New(dErrors.CodeInvalidRecord, "record is not active")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit record version")
	}
	s.aggregate(ctx, rec)

	s.audit.Emit(ctx, audit.Event{
		Actor:   caller.String(),
		Action:  audit.ActionRecordUpdated,
		Subject: rec.ID.String(),
	})
	if s.metrics != nil {
		s.metrics.IncrementUpdated()
		s.metrics.ObserveUpdate(start)
	}
	return rec.ID, nil
}

func (s *Service) authorizeUpdate(ctx context.Context, existing *models.ParasiteRecord, caller id.Identity) error {
	if existing.Author == caller {
		return nil
	}
	isAdmin, err := s.access.IsOwnInstitutionAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !isAdmin {
		return dErrors.New(dErrors.CodeNotAuthorized, "caller is neither the record author nor an institution admin")
	}
	return nil
}

// GetRecord returns one committed version.
func (s *Service) GetRecord(ctx context.Context, recordID id.RecordID) (*models.ParasiteRecord, error) {
	rec, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	return rec, nil
}

// GetHistory returns the full lineage of recordID newest→oldest.
func (s *Service) GetHistory(ctx context.Context, recordID id.RecordID) ([]*models.ParasiteRecord, error) {
	lineage, err := s.records.History(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInvalidRecord, "record does not exist")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load history")
	}
	return lineage, nil
}

// TotalRecords returns the allocation counter value.
func (s *Service) TotalRecords(ctx context.Context) (uint64, error) {
	total, err := s.records.Total(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read record counter")
	}
	return total, nil
}

// aggregate bumps the region counter for a committed record when the
// aggregate lives outside the ledger store. The commit stands even if the
// aggregate store is unreachable; the gap is logged so operators can
// reconcile.
func (s *Service) aggregate(ctx context.Context, rec *models.ParasiteRecord) {
	if s.geo == nil {
		return
	}
	if err := s.geo.Increment(ctx, rec.Location, rec.RecordedAt); err != nil {
		s.logger.ErrorContext(ctx, "geo aggregate increment failed",
			"region", rec.Location,
			"record_id", rec.ID.String(),
			"error", err,
		)
	}
}

func (s *Service) denied(err error) {
	if s.metrics != nil {
		s.metrics.IncrementDenied(string(dErrors.CodeOf(err)))
	}
}
