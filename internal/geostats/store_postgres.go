package geostats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parareg/pkg/platform/sentinel"
)

// PostgresStore persists aggregates with an upsert per increment.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const upsertGeoStatSQL = `
	INSERT INTO geo_stats (region, total_cases, last_updated)
	VALUES ($1, 1, $2)
	ON CONFLICT (region) DO UPDATE SET
		total_cases = geo_stats.total_cases + 1,
		last_updated = GREATEST(geo_stats.last_updated, EXCLUDED.last_updated)
`

func (s *PostgresStore) Increment(ctx context.Context, region string, observedAt uint64) error {
	if _, err := s.db.ExecContext(ctx, upsertGeoStatSQL, region, observedAt); err != nil {
		return fmt.Errorf("increment geo stat: %w", err)
	}
	return nil
}

// IncrementTx applies the same upsert inside a caller-owned transaction, so
// the regional count commits or rolls back together with the ledger write.
func (s *PostgresStore) IncrementTx(ctx context.Context, tx *sql.Tx, region string, observedAt uint64) error {
	if _, err := tx.ExecContext(ctx, upsertGeoStatSQL, region, observedAt); err != nil {
		return fmt.Errorf("increment geo stat: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, region string) (*GeoStat, error) {
	stat := &GeoStat{Region: region}
	err := s.db.QueryRowContext(ctx,
		`SELECT total_cases, last_updated FROM geo_stats WHERE region = $1`, region).
		Scan(&stat.TotalCases, &stat.LastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get geo stat: %w", err)
	}
	return stat, nil
}
