package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"parareg/internal/record/models"
	id "parareg/pkg/domain"
	"parareg/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *InMemoryStoreSuite) draft(name string) models.Draft {
	var author id.Identity
	author[0] = 0x01
	draft, err := models.NewDraft(name, "Apicomplexan", "Sub-Saharan Africa", id.MetadataHash{0xaa}, author)
	s.Require().NoError(err)
	return draft
}

func (s *InMemoryStoreSuite) TestAppend() {
	ctx := context.Background()

	s.Run("ids and sequence values are strictly increasing", func() {
		first, err := s.store.Append(ctx, s.draft("Plasmodium falciparum"))
		s.NoError(err)
		second, err := s.store.Append(ctx, s.draft("Trypanosoma brucei"))
		s.NoError(err)

		s.Equal(id.RecordID(1), first.ID)
		s.Equal(id.RecordID(2), second.ID)
		s.Less(first.RecordedAt, second.RecordedAt)
	})

	s.Run("genesis records are active version 1 with no predecessor", func() {
		rec, err := s.store.Append(ctx, s.draft("Schistosoma mansoni"))
		s.NoError(err)
		s.Equal(models.StatusActive, rec.Status)
		s.Equal(uint64(1), rec.Version)
		s.Nil(rec.PreviousVersion)
	})
}

func (s *InMemoryStoreSuite) TestSupersede() {
	ctx := context.Background()

	s.Run("archives the predecessor and links the successor", func() {
		first, err := s.store.Append(ctx, s.draft("Plasmodium falciparum"))
		s.Require().NoError(err)

		second, err := s.store.Supersede(ctx, first.ID, s.draft("Plasmodium falciparum"))
		s.NoError(err)
		s.Equal(uint64(2), second.Version)
		s.Require().NotNil(second.PreviousVersion)
		s.Equal(first.ID, *second.PreviousVersion)
		s.Equal(models.StatusActive, second.Status)

		archived, err := s.store.FindByID(ctx, first.ID)
		s.NoError(err)
		s.Equal(models.StatusArchived, archived.Status)
		s.Equal(first.RecordedAt, archived.RecordedAt)
	})

	s.Run("unknown predecessor yields not found", func() {
		_, err := s.store.Supersede(ctx, 999, s.draft("Plasmodium falciparum"))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("archived predecessor yields invalid state", func() {
		first, err := s.store.Append(ctx, s.draft("Giardia lamblia"))
		s.Require().NoError(err)
		_, err = s.store.Supersede(ctx, first.ID, s.draft("Giardia lamblia"))
		s.Require().NoError(err)

		_, err = s.store.Supersede(ctx, first.ID, s.draft("Giardia lamblia"))
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})
}

func (s *InMemoryStoreSuite) TestConcurrentSupersede() {
	ctx := context.Background()
	first, err := s.store.Append(ctx, s.draft("Plasmodium falciparum"))
	s.Require().NoError(err)

	const racers = 16
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
	s.Equal(1, wins, "exactly one racing update must win")

	total, err := s.store.Total(ctx)
	s.NoError(err)
	s.Equal(uint64(2), total)
}

func (s *InMemoryStoreSuite) TestHistory() {
	ctx := context.Background()

	first, err := s.store.Append(ctx, s.draft("Plasmodium falciparum"))
	s.Require().NoError(err)
	second, err := s.store.Supersede(ctx, first.ID, s.draft("Plasmodium falciparum"))
	s.Require().NoError(err)
	third, err := s.store.Supersede(ctx, second.ID, s.draft("Plasmodium falciparum"))
	s.Require().NoError(err)

	s.Run("walks the full chain newest to oldest", func() {
		lineage, err := s.store.History(ctx, third.ID)
		s.NoError(err)
		s.Require().Len(lineage, 3)
		s.Equal(third.ID, lineage[0].ID)
		s.Equal(second.ID, lineage[1].ID)
		s.Equal(first.ID, lineage[2].ID)
	})

	s.Run("history from a mid-chain version covers its ancestors only", func() {
		lineage, err := s.store.History(ctx, second.ID)
		s.NoError(err)
		s.Require().Len(lineage, 2)
		s.Equal(second.ID, lineage[0].ID)
		s.Equal(first.ID, lineage[1].ID)
	})

	s.Run("unknown record yields not found", func() {
		_, err := s.store.History(ctx, 999)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestHandoutIsolation() {
	ctx := context.Background()
	rec, err := s.store.Append(ctx, s.draft("Plasmodium falciparum"))
	s.Require().NoError(err)

	rec.ParasiteName = "mutated"
	rec.ApplyArchive()

	reread, err := s.store.FindByID(ctx, rec.ID)
	s.NoError(err)
	s.Equal("Plasmodium falciparum", reread.ParasiteName)
	s.Equal(models.StatusActive, reread.Status)
}

func (s *InMemoryStoreSuite) TestTotal() {
	ctx := context.Background()

	total, err := s.store.Total(ctx)
	s.NoError(err)
	s.Zero(total)

	first, err := s.store.Append(ctx, s.draft("Plasmodium falciparum"))
	s.Require().NoError(err)
	_, err = s.store.Supersede(ctx, first.ID, s.draft("Plasmodium falciparum"))
	s.Require().NoError(err)

	// Updates allocate a fresh id, so they count.
	total, err = s.store.Total(ctx)
	s.NoError(err)
	s.Equal(uint64(2), total)
}
