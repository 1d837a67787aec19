package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"parareg/internal/institution/models"
	id "parareg/pkg/domain"
	"parareg/pkg/platform/sentinel"
)

// Postgres persists institutions in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, inst *models.Institution) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO institutions (id, name, verified, admin) VALUES ($1, $2, $3, $4)`,
		inst.ID.String(), inst.Name, inst.Verified, inst.Admin[:])
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert institution: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, instID id.InstitutionID) (*models.Institution, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, verified, admin FROM institutions WHERE id = $1`, instID.String())
	inst, err := scanInstitution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find institution: %w", err)
	}
	return inst, nil
}

func (s *Postgres) Execute(ctx context.Context, instID id.InstitutionID,
	validate func(*models.Institution) error,
	apply func(*models.Institution)) (*models.Institution, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT id, name, verified, admin FROM institutions WHERE id = $1 FOR UPDATE`, instID.String())
	inst, err := scanInstitution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock institution: %w", err)
	}

	if err := validate(inst); err != nil {
		return nil, err
	}
	apply(inst)

	if _, err := tx.ExecContext(ctx,
		`UPDATE institutions SET name = $2, verified = $3, admin = $4 WHERE id = $1`,
		inst.ID.String(), inst.Name, inst.Verified, inst.Admin[:]); err != nil {
		return nil, fmt.Errorf("update institution: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return inst, nil
}

func scanInstitution(row *sql.Row) (*models.Institution, error) {
	var (
		inst  models.Institution
		key   string
		admin []byte
	)
	if err := row.Scan(&key, &inst.Name, &inst.Verified, &admin); err != nil {
		return nil, err
	}
	inst.ID = id.InstitutionID(key)
	copy(inst.Admin[:], admin)
	return &inst, nil
}
