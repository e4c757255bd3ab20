package users

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpovs/crewtally/internal/common"
	"github.com/mkarpovs/crewtally/internal/server/docstore"
	"github.com/mkarpovs/crewtally/internal/server/models"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(docstore.NewMemoryStore())
}

func TestCreate_DuplicateUsername(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "anna", "secret123", models.RoleUser, []string{"Spool Yard"})
	require.NoError(t, err)

	_, err = s.Create(ctx, "anna", "other456", models.RoleAdmin, nil)
	assert.ErrorIs(t, err, common.ErrDuplicateUsername)

	// case-sensitive match: a different casing is a different account
	_, err = s.Create(ctx, "Anna", "other456", models.RoleUser, nil)
	assert.NoError(t, err)
}

func TestCreate_SaltAndHash(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	u, err := s.Create(ctx, "anna", "secret123", models.RoleUser, nil)
	require.NoError(t, err)

	assert.Len(t, u.Salt, SaltSize)
	assert.NotEmpty(t, u.PasswordHash)
	assert.False(t, u.Disabled)
	assert.NotEmpty(t, u.ID)

	ok, err := s.Verify(ctx, "anna", "secret123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Verify(ctx, "anna", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateFirstAdmin_RejectsShortPassword(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.CreateFirstAdmin(ctx, "admin", "short")
	assert.ErrorIs(t, err, common.ErrPasswordTooShort)

	u, err := s.CreateFirstAdmin(ctx, "admin", "longenough")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestResetPassword(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.ResetPassword(ctx, "ghost", "whatever1"), common.ErrUserNotFound)

	before, err := s.Create(ctx, "anna", "secret123", models.RoleUser, nil)
	require.NoError(t, err)

	require.NoError(t, s.ResetPassword(ctx, "anna", "fresh456"))

	after, err := s.Get(ctx, "anna")
	require.NoError(t, err)

	// both salt and hash are replaced together
	assert.NotEqual(t, before.Salt, after.Salt)
	assert.NotEqual(t, before.PasswordHash, after.PasswordHash)

	ok, err := s.Verify(ctx, "anna", "fresh456")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Verify(ctx, "anna", "secret123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetDisabledAndRole(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "anna", "secret123", models.RoleUser, nil)
	require.NoError(t, err)

	require.NoError(t, s.SetDisabled(ctx, "anna", true))
	require.NoError(t, s.SetRole(ctx, "anna", models.RoleAdmin))

	u, err := s.Get(ctx, "anna")
	require.NoError(t, err)
	assert.True(t, u.Disabled)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestReplaceAndRemoveAreaName(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "anna", "secret123", models.RoleUser, []string{"Spool Yard", "Dock"})
	require.NoError(t, err)
	_, err = s.Create(ctx, "ben", "secret123", models.RoleUser, []string{"Dock"})
	require.NoError(t, err)

	require.NoError(t, s.ReplaceAreaName(ctx, "Spool Yard", "Spool Yard Renamed"))

	u, err := s.Get(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, []string{"Spool Yard Renamed", "Dock"}, u.AssignedAreas)

	require.NoError(t, s.RemoveAreaName(ctx, "Dock"))

	u, err = s.Get(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, []string{"Spool Yard Renamed"}, u.AssignedAreas)

	u, err = s.Get(ctx, "ben")
	require.NoError(t, err)
	assert.Empty(t, u.AssignedAreas)
}

func TestGenerateTemporaryPassword(t *testing.T) {
	pw, err := GenerateTemporaryPassword(0)
	require.NoError(t, err)
	assert.Len(t, pw, TempPasswordLength)

	pw, err = GenerateTemporaryPassword(20)
	require.NoError(t, err)
	assert.Len(t, pw, 20)

	// only ambiguity-reduced characters
	for _, r := range pw {
		assert.True(t, strings.ContainsRune(tempPasswordAlphabet, r), "unexpected character %q", r)
	}
	assert.NotContains(t, pw, "0")
	assert.NotContains(t, pw, "O")
	assert.NotContains(t, pw, "l")
	assert.NotContains(t, pw, "I")
}

func TestCanAccessArea(t *testing.T) {
	admin := &models.User{Role: models.RoleAdmin}
	assert.True(t, admin.CanAccessArea("anything"))

	u := &models.User{Role: models.RoleUser, AssignedAreas: []string{"Dock"}}
	assert.True(t, u.CanAccessArea("Dock"))
	assert.False(t, u.CanAccessArea("Spool Yard"))
}
