package domain

import (
	"encoding/hex"
	"strconv"

	dErrors "parareg/pkg/domain-errors"
)

// IdentitySize is the byte length of an authenticated caller identity.
// Identities arrive as hex on the wire (typically derived from a public key
// by the authentication layer) and are treated as opaque here: the registry
// compares them for equality and nothing else.
const IdentitySize = 32

// Identity is an opaque principal. It carries no ordering or structure beyond
// equality, so it can back map keys and == checks directly.
type Identity [IdentitySize]byte

// ParseIdentity decodes a hex-encoded identity and enforces the fixed size.
func ParseIdentity(s string) (Identity, error) {
	if s == "" {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "identity must not be empty")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "identity must be hex encoded")
	}
	if len(raw) != IdentitySize {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "identity must be exactly 32 bytes")
	}
	var id Identity
	copy(id[:], raw)
	if id.IsZero() {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "identity must not be the zero value")
	}
	return id, nil
}

func (i Identity) String() string {
	return hex.EncodeToString(i[:])
}

func (i Identity) IsZero() bool {
	return i == Identity{}
}

// MarshalJSON emits the hex form so identities stay opaque strings on the wire.
func (i Identity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + i.String() + `"`), nil
}

func (i *Identity) UnmarshalJSON(data []byte) error {
	s, err := unquote(data)
	if err != nil {
		return err
	}
	parsed, err := ParseIdentity(s)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// RecordID is the ledger-wide record identifier. IDs are allocated once,
// strictly increasing, and never reused.
type RecordID uint64

// ParseRecordID parses a decimal record ID from transport input.
func ParseRecordID(s string) (RecordID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "record id must be a positive integer")
	}
	return RecordID(n), nil
}

func (r RecordID) String() string {
	return strconv.FormatUint(uint64(r), 10)
}

// InstitutionID keys the institution table. At most 50 characters.
type InstitutionID string

const maxInstitutionIDLen = 50

// ParseInstitutionID validates the institution key shape.
func ParseInstitutionID(s string) (InstitutionID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "institution id must not be empty")
	}
	if len(s) > maxInstitutionIDLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "institution id must be 50 characters or less")
	}
	return InstitutionID(s), nil
}

func (i InstitutionID) String() string {
	return string(i)
}

// MetadataHashSize is the byte length of the off-service content digest.
const MetadataHashSize = 32

// MetadataHash is an opaque 32-byte content reference produced by the
// off-service storage pipeline. The registry never interprets or
// dereferences it.
type MetadataHash [MetadataHashSize]byte

// ParseMetadataHash decodes a hex-encoded digest and enforces the fixed size.
func ParseMetadataHash(s string) (MetadataHash, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return MetadataHash{}, dErrors.New(dErrors.CodeInvalidInput, "metadata hash must be hex encoded")
	}
	if len(raw) != MetadataHashSize {
		return MetadataHash{}, dErrors.New(dErrors.CodeInvalidInput, "metadata hash must be exactly 32 bytes")
	}
	var h MetadataHash
	copy(h[:], raw)
	return h, nil
}

func (h MetadataHash) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalJSON emits the hex form of the digest.
func (h MetadataHash) MarshalJSON() ([]byte, error) {
	return []byte(`"` + h.String() + `"`), nil
}

func (h *MetadataHash) UnmarshalJSON(data []byte) error {
	s, err := unquote(data)
	if err != nil {
		return err
	}
	parsed, err := ParseMetadataHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func unquote(data []byte) (string, error) {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return "", dErrors.New(dErrors.CodeInvalidInput, "expected a JSON string")
	}
	return string(data[1 : len(data)-1]), nil
}
