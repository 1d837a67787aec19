package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parareg/internal/accesscontrol"
	"parareg/internal/audit"
	"parareg/internal/geostats"
	instmodels "parareg/internal/institution/models"
	inststore "parareg/internal/institution/store"
	"parareg/internal/record/models"
	"parareg/internal/record/store"
	"parareg/internal/researcher"
	id "parareg/pkg/domain"
	dErrors "parareg/pkg/domain-errors"
	"parareg/pkg/testutil"
)

type fixture struct {
	svc          *Service
	records      *store.InMemory
	institutions *inststore.InMemory
	memberships  *researcher.InMemoryStore
	geo          *geostats.Service
	geoStore     *geostats.InMemoryStore
	audit        *audit.Publisher

	owner      id.Identity
	admin      id.Identity
	researcher id.Identity
	outsider   id.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		records:      store.NewInMemory(),
		institutions: inststore.NewInMemory(),
		memberships:  researcher.NewInMemoryStore(),
		geoStore:     geostats.NewInMemoryStore(),
		owner:        testutil.IdentityFromSeed("owner"),
		admin:        testutil.IdentityFromSeed("admin"),
		researcher:   testutil.IdentityFromSeed("researcher-p"),
		outsider:     testutil.IdentityFromSeed("outsider"),
	}
	f.geo = geostats.NewService(f.geoStore)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.audit = audit.NewPublisher(64, logger)
	checker := accesscontrol.NewChecker(f.owner, f.institutions, f.memberships)
	f.svc = New(f.records, checker, f.geo, f.audit, nil, logger)
	return f
}

// verifiedInstitution registers WHO_AFRICA as verified with f.admin as its
// admin and enrolls both the admin and researcher P.
func (f *fixture) verifiedInstitution(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	inst, err := instmodels.NewInstitution("WHO_AFRICA", "WHO Regional Office for Africa", f.admin)
	require.NoError(t, err)
	inst.ApplyVerification()
	require.NoError(t, f.institutions.Create(ctx, inst))
	require.NoError(t, f.memberships.Set(ctx, f.admin, "WHO_AFRICA"))
	require.NoError(t, f.memberships.Set(ctx, f.researcher, "WHO_AFRICA"))
}

func sampleInput() Input {
	return Input{
		ParasiteName:   "Plasmodium falciparum",
		Classification: "Apicomplexan",
		Location:       "Sub-Saharan Africa",
		MetadataHash:   id.MetadataHash{0x11},
	}
}

func TestAddRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("caller without membership is rejected and nothing is allocated", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.AddRecord(ctx, sampleInput(), f.outsider)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotVerified))

		total, err := f.svc.TotalRecords(ctx)
		require.NoError(t, err)
		assert.Zero(t, total)
		_, err = f.geo.Get(ctx, "Sub-Saharan Africa")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("caller from an unverified institution is rejected", func(t *testing.T) {
		f := newFixture(t)
		inst, err := instmodels.NewInstitution("WHO_AFRICA", "WHO Regional Office for Africa", f.admin)
		require.NoError(t, err)
		require.NoError(t, f.institutions.Create(ctx, inst))
		require.NoError(t, f.memberships.Set(ctx, f.researcher, "WHO_AFRICA"))

		_, err = f.svc.AddRecord(ctx, sampleInput(), f.researcher)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotVerified))
	})

	t.Run("invalid input fails validation before authorization", func(t *testing.T) {
		f := newFixture(t)
		input := sampleInput()
		input.ParasiteName = ""

		_, err := f.svc.AddRecord(ctx, input, f.outsider)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("verified member commits a genesis record and bumps the region", func(t *testing.T) {
		f := newFixture(t)
		f.verifiedInstitution(t)

		recordID, err := f.svc.AddRecord(ctx, sampleInput(), f.researcher)
		require.NoError(t, err)
		assert.Equal(t, id.RecordID(1), recordID)

		rec, err := f.svc.GetRecord(ctx, recordID)
		require.NoError(t, err)
		assert.Equal(t, f.researcher, rec.Author)
		assert.Equal(t, uint64(1), rec.Version)
		assert.Equal(t, models.StatusActive, rec.Status)

		stat, err := f.geo.Get(ctx, "Sub-Saharan Africa")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), stat.TotalCases)
		assert.Equal(t, rec.RecordedAt, stat.LastUpdated)
	})
}

func TestUpdateRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("author update archives the predecessor and links the successor", func(t *testing.T) {
		f := newFixture(t)
		f.verifiedInstitution(t)

		firstID, err := f.svc.AddRecord(ctx, sampleInput(), f.researcher)
		require.NoError(t, err)

		updated := sampleInput()
		updated.MetadataHash = id.MetadataHash{0x22}
		secondID, err := f.svc.UpdateRecord(ctx, firstID, updated, f.researcher)
		require.NoError(t, err)
		assert.Equal(t, id.RecordID(2), secondID)

		first, err := f.svc.GetRecord(ctx, firstID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusArchived, first.Status)

		second, err := f.svc.GetRecord(ctx, secondID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, second.Status)
		assert.Equal(t, uint64(2), second.Version)
		require.NotNil(t, second.PreviousVersion)
		assert.Equal(t, firstID, *second.PreviousVersion)

		history, err := f.svc.GetHistory(ctx, secondID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, secondID, history[0].ID)
		assert.Equal(t, firstID, history[1].ID)

		// Each committed version counts toward the region aggregate.
		stat, err := f.geo.Get(ctx, "Sub-Saharan Africa")
		require.NoError(t, err)
		assert.Equal(t, uint64(2), stat.TotalCases)
	})

	t.Run("institution admin may update another author's record", func(t *testing.T) {
		f := newFixture(t)
		f.verifiedInstitution(t)

		firstID, err := f.svc.AddRecord(ctx, sampleInput(), f.researcher)
		require.NoError(t, err)

		_, err = f.svc.UpdateRecord(ctx, firstID, sampleInput(), f.admin)
		assert.NoError(t, err)
	})

	t.Run("non-author non-admin is denied and state is unchanged", func(t *testing.T) {
		f := newFixture(t)
		f.verifiedInstitution(t)
		other := testutil.IdentityFromSeed("researcher-q")
		require.NoError(t, f.memberships.Set(ctx, other, "WHO_AFRICA"))

		firstID, err := f.svc.AddRecord(ctx, sampleInput(), f.researcher)
		require.NoError(t, err)
		before, err := f.svc.GetRecord(ctx, firstID)
		require.NoError(t, err)
		totalBefore, err := f.svc.TotalRecords(ctx)
		require.NoError(t, err)

		_, err = f.svc.UpdateRecord(ctx, firstID, sampleInput(), other)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotAuthorized))

		after, err := f.svc.GetRecord(ctx, firstID)
		require.NoError(t, err)
		assert.Equal(t, before, after)
		totalAfter, err := f.svc.TotalRecords(ctx)
		require.NoError(t, err)
		assert.Equal(t, totalBefore, totalAfter)
		stat, err := f.geo.Get(ctx, "Sub-Saharan Africa")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), stat.TotalCases)
	})

	t.Run("updating an unknown record fails with invalid record", func(t *testing.T) {
		f := newFixture(t)
		f.verifiedInstitution(t)

		_, err := f.svc.UpdateRecord(ctx, 999, sampleInput(), f.researcher)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidRecord))
	})

	t.Run("updating an archived version fails with invalid record", func(t *testing.T) {
		f := newFixture(t)
		f.verifiedInstitution(t)

		firstID, err := f.svc.AddRecord(ctx, sampleInput(), f.researcher)
		require.NoError(t, err)
		_, err = f.svc.UpdateRecord(ctx, firstID, sampleInput(), f.researcher)
		require.NoError(t, err)

		_, err = f.svc.UpdateRecord(ctx, firstID, sampleInput(), f.researcher)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidRecord))
	})

	t.Run("exactly one of two racing updates wins", func(t *testing.T) {
		f := newFixture(t)
		f.verifiedInstitution(t)

		firstID, err := f.svc.AddRecord(ctx, sampleInput(), f.researcher)
		require.NoError(t, err)

		const racers = 8
		var wg sync.WaitGroup
		errs := make([]error, racers)
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.svc.UpdateRecord(ctx, firstID, sampleInput(), f.researcher)
			}(i)
		}
		wg.Wait()

		var wins int
		for _, err := range errs {
			if err == nil {
				wins++
			} else {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidRecord))
			}
		}
		assert.Equal(t, 1, wins)
	})
}

// A nil aggregator is the contract for ledger stores that commit the regional
// increment inside their own transaction; writes must still go through.
func TestAddRecord_NilAggregator(t *testing.T) {
	f := newFixture(t)
	f.verifiedInstitution(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	checker := accesscontrol.NewChecker(f.owner, f.institutions, f.memberships)
	svc := New(f.records, checker, nil, f.audit, nil, logger)

	recordID, err := svc.AddRecord(context.Background(), sampleInput(), f.researcher)
	require.NoError(t, err)
	assert.Equal(t, id.RecordID(1), recordID)

	_, err = svc.UpdateRecord(context.Background(), recordID, sampleInput(), f.researcher)
	require.NoError(t, err)
}

func TestGetRecord_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetRecord(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = f.svc.GetHistory(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidRecord))
}

func TestAddRecord_EmitsAudit(t *testing.T) {
	f := newFixture(t)
	f.verifiedInstitution(t)

	recordID, err := f.svc.AddRecord(context.Background(), sampleInput(), f.researcher)
	require.NoError(t, err)

	select {
	case event := <-f.audit.Events():
		assert.Equal(t, audit.ActionRecordCreated, event.Action)
		assert.Equal(t, f.researcher.String(), event.Actor)
		assert.Equal(t, recordID.String(), event.Subject)
		assert.NotEmpty(t, event.ID)
	default:
		t.Fatal("expected an audit event for the committed record")
	}
}
