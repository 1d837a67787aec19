package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parareg/internal/record/models"
	id "parareg/pkg/domain"
	"parareg/pkg/platform/sentinel"
)

// TxAggregator applies a regional increment inside the ledger transaction.
type TxAggregator interface {
	IncrementTx(ctx context.Context, tx *sql.Tx, region string, observedAt uint64) error
}

// Postgres persists the ledger in PostgreSQL. Writes run in a transaction
// that bumps the allocation counters under a row lock and, for Supersede,
// takes FOR UPDATE on the predecessor, so the one-writer-wins contract holds
// across instances.
type Postgres struct {
	db  *sql.DB
	agg TxAggregator
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// WithAggregator makes every committed write bump its region's aggregate in
// the same transaction. Use when the aggregate table shares the database; a
// crash then cannot separate the ledger from the counts.
func (s *Postgres) WithAggregator(agg TxAggregator) *Postgres {
	s.agg = agg
	return s
}

const insertRecordSQL = `
	INSERT INTO parasite_records
		(id, parasite_name, classification, location, recorded_at, author, metadata_hash, status, version, previous_version)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

func (s *Postgres) Append(ctx context.Context, draft models.Draft) (rec *models.ParasiteRecord, err error) {
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		rec, err = s.commit(ctx, tx, draft, 1, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Postgres) Supersede(ctx context.Context, prevID id.RecordID, draft models.Draft) (rec *models.ParasiteRecord, err error) {
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var status string
		var version uint64
		row := tx.QueryRowContext(ctx,
			`SELECT status, version FROM parasite_records WHERE id = $1 FOR UPDATE`, uint64(prevID))
		if err := row.Scan(&status, &version); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("lock predecessor: %w", err)
		}
		if models.Status(status) != models.StatusActive {
			return sentinel.ErrInvalidState
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE parasite_records SET status = $1 WHERE id = $2`,
			string(models.StatusArchived), uint64(prevID)); err != nil {
			return fmt.Errorf("archive predecessor: %w", err)
		}

		rec, err = s.commit(ctx, tx, draft, version+1, &prevID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// commit allocates the next record ID and sequence value under the counter
// row lock and inserts the new version.
func (s *Postgres) commit(ctx context.Context, tx *sql.Tx, draft models.Draft, version uint64, prev *id.RecordID) (*models.ParasiteRecord, error) {
	recordID, err := bumpCounter(ctx, tx, "record_id")
	if err != nil {
		return nil, err
	}
	seq, err := bumpCounter(ctx, tx, "sequence")
	if err != nil {
		return nil, err
	}

	rec := &models.ParasiteRecord{
		ID:              id.RecordID(recordID),
		ParasiteName:    draft.ParasiteName,
		Classification:  draft.Classification,
		Location:        draft.Location,
		RecordedAt:      seq,
		Author:          draft.Author,
		MetadataHash:    draft.MetadataHash,
		Status:          models.StatusActive,
		Version:         version,
		PreviousVersion: prev,
	}

	var prevArg sql.NullInt64
	if prev != nil {
		prevArg = sql.NullInt64{Int64: int64(*prev), Valid: true}
	}
	_, err = tx.ExecContext(ctx, insertRecordSQL,
		uint64(rec.ID), rec.ParasiteName, rec.Classification, rec.Location,
		rec.RecordedAt, rec.Author[:], rec.MetadataHash[:],
		string(rec.Status), rec.Version, prevArg)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	if s.agg != nil {
		if err := s.agg.IncrementTx(ctx, tx, rec.Location, rec.RecordedAt); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func bumpCounter(ctx context.Context, tx *sql.Tx, name string) (uint64, error) {
	var value uint64
	err := tx.QueryRowContext(ctx,
		`UPDATE ledger_counters SET value = value + 1 WHERE name = $1 RETURNING value`, name).
		Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("bump %s counter: %w", name, err)
	}
	return value, nil
}

const selectRecordSQL = `
	SELECT id, parasite_name, classification, location, recorded_at, author, metadata_hash, status, version, previous_version
	FROM parasite_records
`

func (s *Postgres) FindByID(ctx context.Context, recordID id.RecordID) (*models.ParasiteRecord, error) {
	row := s.db.QueryRowContext(ctx, selectRecordSQL+`WHERE id = $1`, uint64(recordID))
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find record: %w", err)
	}
	return rec, nil
}

func (s *Postgres) History(ctx context.Context, recordID id.RecordID) ([]*models.ParasiteRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH RECURSIVE lineage AS (
			SELECT r.*, 1 AS depth FROM parasite_records r WHERE r.id = $1
			UNION ALL
			SELECT r.*, l.depth + 1 FROM parasite_records r
			JOIN lineage l ON r.id = l.previous_version
		)
		SELECT id, parasite_name, classification, location, recorded_at, author, metadata_hash, status, version, previous_version
		FROM lineage ORDER BY depth
	`, uint64(recordID))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var lineage []*models.ParasiteRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		lineage = append(lineage, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	if len(lineage) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return lineage, nil
}

func (s *Postgres) Total(ctx context.Context) (uint64, error) {
	var value uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM ledger_counters WHERE name = 'record_id'`).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("read allocation counter: %w", err)
	}
	return value, nil
}

func (s *Postgres) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.ParasiteRecord, error) {
	var (
		rec      models.ParasiteRecord
		author   []byte
		hash     []byte
		status   string
		recID    uint64
		prevNull sql.NullInt64
	)
	err := row.Scan(&recID, &rec.ParasiteName, &rec.Classification, &rec.Location,
		&rec.RecordedAt, &author, &hash, &status, &rec.Version, &prevNull)
	if err != nil {
		return nil, err
	}
	rec.ID = id.RecordID(recID)
	rec.Status = models.Status(status)
	copy(rec.Author[:], author)
	copy(rec.MetadataHash[:], hash)
	if prevNull.Valid {
		prev := id.RecordID(prevNull.Int64)
		rec.PreviousVersion = &prev
	}
	return &rec, nil
}
