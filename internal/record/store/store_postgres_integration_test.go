//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"parareg/internal/geostats"
	"parareg/internal/platform/postgres"
	"parareg/internal/record/models"
	"parareg/internal/record/store"
	id "parareg/pkg/domain"
	"parareg/pkg/platform/sentinel"
	"parareg/pkg/testutil"
	"parareg/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.Require().NoError(postgres.EnsureSchema(context.Background(), s.pg.DB))
	s.store = store.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.pg.TruncateTables(ctx, "parasite_records", "geo_stats"))
	_, err := s.pg.DB.ExecContext(ctx, `UPDATE ledger_counters SET value = 0`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) draft(name string) models.Draft {
	draft, err := models.NewDraft(name, "Apicomplexan", "Sub-Saharan Africa",
		id.MetadataHash{0xaa}, testutil.IdentityFromSeed("researcher-p"))
	s.Require().NoError(err)
	return draft
}

func (s *PostgresStoreSuite) TestAppendAndFind() {
	ctx := context.Background()

	first, err := s.store.Append(ctx, s.draft("Plasmodium falciparum"))
	s.Require().NoError(err)
	s.Equal(id.RecordID(1), first.ID)
	s.Equal(uint64(1), first.Version)

	reread, err := s.store.FindByID(ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(first, reread)

	_, err = s.store.FindByID(ctx, 999)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSupersedeAndHistory() {
	ctx := context.Background()

	first, err := s.store.Append(ctx, s.draft("Plasmodium falciparum"))
	s.Require().NoError(err)
	second, err := s.store.Supersede(ctx, first.ID, s.draft("Plasmodium falciparum"))
	s.Require().NoError(err)

	s.Equal(uint64(2), second.Version)
	s.Require().NotNil(second.PreviousVersion)
	s.Equal(first.ID, *second.PreviousVersion)

	archived, err := s.store.FindByID(ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusArchived, archived.Status)

	lineage, err := s.store.History(ctx, second.ID)
	s.Require().NoError(err)
	s.Require().Len(lineage, 2)
	s.Equal(second.ID, lineage[0].ID)
	s.Equal(first.ID, lineage[1].ID)

	_, err = s.store.Supersede(ctx, first.ID, s.draft("Plasmodium falciparum"))
	s.ErrorIs(err, sentinel.ErrInvalidState)
	_, err = s.store.Supersede(ctx, 999, s.draft("Plasmodium falciparum"))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConcurrentSupersede() {
	ctx := context.Background()
	first, err := s.store.Append(ctx, s.draft("Plasmodium falciparum"))
	s.Require().NoError(err)

	const racers = 10
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.store.Supersede(ctx, first.ID, s.draft("Plasmodium falciparum"))
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			s.ErrorIs(err, sentinel.ErrInvalidState)
		}
	}
	s.Equal(1, wins, "row lock must serialize racing updates to one winner")

	total, err := s.store.Total(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(2), total, "losing updates must not allocate ids")
}

func (s *PostgresStoreSuite) TestAggregatedWritesCommitTogether() {
	ctx := context.Background()
	geo := geostats.NewPostgresStore(s.pg.DB)
	ledger := store.NewPostgres(s.pg.DB).WithAggregator(geo)

	first, err := ledger.Append(ctx, s.draft("Plasmodium falciparum"))
	s.Require().NoError(err)

	stat, err := geo.Get(ctx, "Sub-Saharan Africa")
	s.Require().NoError(err)
	s.Equal(uint64(1), stat.TotalCases)
	s.Equal(first.RecordedAt, stat.LastUpdated)

	second, err := ledger.Supersede(ctx, first.ID, s.draft("Plasmodium falciparum"))
	s.Require().NoError(err)

	stat, err = geo.Get(ctx, "Sub-Saharan Africa")
	s.Require().NoError(err)
	s.Equal(uint64(2), stat.TotalCases)
	s.Equal(second.RecordedAt, stat.LastUpdated)
}

func (s *PostgresStoreSuite) TestAggregatedFailedWritesLeaveCounts() {
	ctx := context.Background()
	geo := geostats.NewPostgresStore(s.pg.DB)
	ledger := store.NewPostgres(s.pg.DB).WithAggregator(geo)

	first, err := ledger.Append(ctx, s.draft("Plasmodium falciparum"))
	s.Require().NoError(err)
	_, err = ledger.Supersede(ctx, first.ID, s.draft("Plasmodium falciparum"))
	s.Require().NoError(err)

	_, err = ledger.Supersede(ctx, first.ID, s.draft("Plasmodium falciparum"))
	s.ErrorIs(err, sentinel.ErrInvalidState)
	_, err = ledger.Supersede(ctx, 999, s.draft("Plasmodium falciparum"))
	s.ErrorIs(err, sentinel.ErrNotFound)

	stat, err := geo.Get(ctx, "Sub-Saharan Africa")
	s.Require().NoError(err)
	s.Equal(uint64(2), stat.TotalCases, "rolled back writes must not move the aggregate")
}

func (s *PostgresStoreSuite) TestTotalUnaffectedByRolledBackWrites() {
	ctx := context.Background()

	_, err := s.store.Append(ctx, s.draft("Plasmodium falciparum"))
	s.Require().NoError(err)
	_, err = s.store.Supersede(ctx, 999, s.draft("Plasmodium falciparum"))
	s.ErrorIs(err, sentinel.ErrNotFound)

	total, err := s.store.Total(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), total)
}
