package researcher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "parareg/pkg/domain"
	"parareg/pkg/platform/sentinel"
)

// PostgresStore persists memberships in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Set(ctx context.Context, identity id.Identity, instID id.InstitutionID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO researcher_memberships (identity, institution_id)
		VALUES ($1, $2)
		ON CONFLICT (identity) DO UPDATE SET institution_id = EXCLUDED.institution_id
	`, identity[:], instID.String())
	if err != nil {
		return fmt.Errorf("set membership: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, identity id.Identity) (id.InstitutionID, error) {
	var instID string
	err := s.db.QueryRowContext(ctx,
		`SELECT institution_id FROM researcher_memberships WHERE identity = $1`, identity[:]).
		Scan(&instID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("find membership: %w", err)
	}
	return id.InstitutionID(instID), nil
}
