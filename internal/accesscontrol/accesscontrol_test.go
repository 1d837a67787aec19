package accesscontrol_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parareg/internal/accesscontrol"
	instmodels "parareg/internal/institution/models"
	inststore "parareg/internal/institution/store"
	"parareg/internal/researcher"
	id "parareg/pkg/domain"
	dErrors "parareg/pkg/domain-errors"
	"parareg/pkg/testutil"
)

type checkerFixture struct {
	checker      *accesscontrol.Checker
	institutions *inststore.InMemory
	memberships  *researcher.InMemoryStore
	owner        id.Identity
	admin        id.Identity
	member       id.Identity
}

func newCheckerFixture(t *testing.T) *checkerFixture {
	t.Helper()

	f := &checkerFixture{
		institutions: inststore.NewInMemory(),
		memberships:  researcher.NewInMemoryStore(),
		owner:        testutil.IdentityFromSeed("owner"),
		admin:        testutil.IdentityFromSeed("admin"),
		member:       testutil.IdentityFromSeed("member"),
	}
	f.checker = accesscontrol.NewChecker(f.owner, f.institutions, f.memberships)
	return f
}

func (f *checkerFixture) registerInstitution(t *testing.T, instID id.InstitutionID, admin id.Identity, verified bool) {
	t.Helper()

	inst, err := instmodels.NewInstitution(instID, "Test Institute", admin)
	require.NoError(t, err)
	if verified {
		inst.ApplyVerification()
	}
	require.NoError(t, f.institutions.Create(context.Background(), inst))
}

func TestChecker_IsOwner(t *testing.T) {
	f := newCheckerFixture(t)

	assert.True(t, f.checker.IsOwner(f.owner))
	assert.False(t, f.checker.IsOwner(f.admin))
	assert.False(t, f.checker.IsOwner(id.Identity{}))
}

func TestChecker_IsInstitutionAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown institution fails with invalid institution", func(t *testing.T) {
		f := newCheckerFixture(t)
		_, err := f.checker.IsInstitutionAdmin(ctx, f.admin, "GHOST")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInstitution))
	})

	t.Run("answers per the stored admin", func(t *testing.T) {
		f := newCheckerFixture(t)
		f.registerInstitution(t, "WHO_AFRICA", f.admin, false)

		isAdmin, err := f.checker.IsInstitutionAdmin(ctx, f.admin, "WHO_AFRICA")
		require.NoError(t, err)
		assert.True(t, isAdmin)

		isAdmin, err = f.checker.IsInstitutionAdmin(ctx, f.member, "WHO_AFRICA")
		require.NoError(t, err)
		assert.False(t, isAdmin)
	})
}

func TestChecker_IsOwnInstitutionAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("no membership answers false without error", func(t *testing.T) {
		f := newCheckerFixture(t)
		isAdmin, err := f.checker.IsOwnInstitutionAdmin(ctx, f.admin)
		require.NoError(t, err)
		assert.False(t, isAdmin)
	})

	t.Run("admin belonging to their own institution answers true", func(t *testing.T) {
		f := newCheckerFixture(t)
		f.registerInstitution(t, "WHO_AFRICA", f.admin, true)
		require.NoError(t, f.memberships.Set(ctx, f.admin, "WHO_AFRICA"))

		isAdmin, err := f.checker.IsOwnInstitutionAdmin(ctx, f.admin)
		require.NoError(t, err)
		assert.True(t, isAdmin)
	})

	t.Run("plain member answers false", func(t *testing.T) {
		f := newCheckerFixture(t)
		f.registerInstitution(t, "WHO_AFRICA", f.admin, true)
		require.NoError(t, f.memberships.Set(ctx, f.member, "WHO_AFRICA"))

		isAdmin, err := f.checker.IsOwnInstitutionAdmin(ctx, f.member)
		require.NoError(t, err)
		assert.False(t, isAdmin)
	})
}

func TestChecker_VerifiedMembership(t *testing.T) {
	ctx := context.Background()

	t.Run("missing membership fails with not verified", func(t *testing.T) {
		f := newCheckerFixture(t)
		_, err := f.checker.VerifiedMembership(ctx, f.member)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotVerified))
	})

	t.Run("unverified institution fails with not verified", func(t *testing.T) {
		f := newCheckerFixture(t)
		f.registerInstitution(t, "WHO_AFRICA", f.admin, false)
		require.NoError(t, f.memberships.Set(ctx, f.member, "WHO_AFRICA"))

		_, err := f.checker.VerifiedMembership(ctx, f.member)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotVerified))
	})

	t.Run("verified institution returns the membership", func(t *testing.T) {
		f := newCheckerFixture(t)
		f.registerInstitution(t, "WHO_AFRICA", f.admin, true)
		require.NoError(t, f.memberships.Set(ctx, f.member, "WHO_AFRICA"))

		instID, err := f.checker.VerifiedMembership(ctx, f.member)
		require.NoError(t, err)
		assert.Equal(t, id.InstitutionID("WHO_AFRICA"), instID)
	})
}
