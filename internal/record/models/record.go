package models

import (
	id "parareg/pkg/domain"
	dErrors "parareg/pkg/domain-errors"
)

// Status is the lifecycle state of one record version.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// ParasiteRecord is one immutable version in a record lineage.
//
// Invariants:
//   - ID is allocated once by the ledger, strictly increasing, never reused
//   - Version is 1 iff PreviousVersion is nil, else predecessor.Version+1
//   - PreviousVersion, when set, references an existing record with a
//     strictly smaller ID, so every lineage is a finite acyclic backward chain
//   - At most one record per lineage is Active (the newest); Active→Archived
//     is the only transition and is one-way
//   - RecordedAt is the ledger sequence value at commit time and is immutable
//
// Edits never mutate a committed version: updating archives the predecessor
// and appends a new version. Archival flips Status and nothing else.
type ParasiteRecord struct {
	ID              id.RecordID     `json:"id"`
	ParasiteName    string          `json:"parasite_name"`
	Classification  string          `json:"classification"`
	Location        string          `json:"location"`
	RecordedAt      uint64          `json:"recorded_at"`
	Author          id.Identity     `json:"author"`
	MetadataHash    id.MetadataHash `json:"metadata_hash"`
	Status          Status          `json:"status"`
	Version         uint64          `json:"version"`
	PreviousVersion *id.RecordID    `json:"previous_version,omitempty"`
}

func (r *ParasiteRecord) IsActive() bool {
	return r.Status == StatusActive
}

// CanSupersede checks that this version may be archived in favor of a
// successor. Only the Active head of a lineage can be superseded.
func (r *ParasiteRecord) CanSupersede() error {
	if r.Status != StatusActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "record is not active")
	}
	return nil
}

// ApplyArchive flips the record to Archived. No other field changes.
// Call CanSupersede first; stores invoke both inside one critical section.
func (r *ParasiteRecord) ApplyArchive() {
	r.Status = StatusArchived
}

// Clone returns an independent copy so stores never hand out aliased state.
func (r *ParasiteRecord) Clone() *ParasiteRecord {
	cp := *r
	if r.PreviousVersion != nil {
		prev := *r.PreviousVersion
		cp.PreviousVersion = &prev
	}
	return &cp
}

const (
	maxParasiteNameLen   = 100
	maxClassificationLen = 50
	maxLocationLen       = 100
)

// Draft carries the caller-supplied fields of a record-to-be. The ledger
// assigns ID, RecordedAt, Version, and PreviousVersion at commit time.
type Draft struct {
	ParasiteName   string
	Classification string
	Location       string
	MetadataHash   id.MetadataHash
	Author         id.Identity
}

// NewDraft validates field shape constraints. Semantic validation of the
// scientific content happens off-service before submission.
func NewDraft(name, classification, location string, hash id.MetadataHash, author id.Identity) (Draft, error) {
	if name == "" {
		return Draft{}, dErrors.New(dErrors.CodeValidation, "parasite name must not be empty")
	}
	if len(name) > maxParasiteNameLen {
		return Draft{}, dErrors.New(dErrors.CodeValidation, "parasite name must be 100 characters or less")
	}
	if classification == "" {
		return Draft{}, dErrors.New(dErrors.CodeValidation, "classification must not be empty")
	}
	if len(classification) > maxClassificationLen {
		return Draft{}, dErrors.New(dErrors.CodeValidation, "classification must be 50 characters or less")
	}
	if location == "" {
		return Draft{}, dErrors.New(dErrors.CodeValidation, "location must not be empty")
	}
	if len(location) > maxLocationLen {
		return Draft{}, dErrors.New(dErrors.CodeValidation, "location must be 100 characters or less")
	}
	if author.IsZero() {
		return Draft{}, dErrors.New(dErrors.CodeValidation, "author identity is required")
	}
	return Draft{
		ParasiteName:   name,
		Classification: classification,
		Location:       location,
		MetadataHash:   hash,
		Author:         author,
	}, nil
}
