package services

import (
	"strings"
	"testing"

	"github.com/newsroom-api/server/internal/store"
	"github.com/newsroom-api/server/internal/testutil"
	"github.com/newsroom-api/server/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)

	user, err := f.users.Register(ctx, Registration{Name: " Ada ", Email: "Ada@News.test", Password: "Secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@news.test", user.Email)
	assert.Equal(t, types.RoleUser, user.Role)
	assert.Equal(t, types.UserStatusActive, user.Status)
	assert.NotEqual(t, "Secret1", user.PasswordHash)

	_, err = f.users.Register(ctx, Registration{Name: "Ada", Email: "ADA@news.TEST", Password: "Secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.Register(ctx, Registration{Name: "A", Email: "nope", Password: "Secret1"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = f.users.Register(ctx, Registration{Name: "A", Email: "a@b.co", Password: "secret"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = f.users.Register(ctx, Registration{Email: "a@b.co", Password: "Secret1"})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = f.users.Register(ctx, Registration{Name: "A", Email: "a@b.co", Password: "Secret1" + strings.Repeat("x", 75)})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	user := f.store.SeedUser(t, "Ada", "ada@news.test", types.RoleUser)

	got, err := f.users.Authenticate(ctx, "ADA@news.test", testutil.Password)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = f.users.Authenticate(ctx, "ada@news.test", "Wrong123")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	_, err = f.users.Authenticate(ctx, "ada@news.test", strings.Repeat("Long1", 20))
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	_, err = f.users.Authenticate(ctx, "ghost@news.test", testutil.Password)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.users.UpdateStatus(ctx, user.ID, types.UserStatusInactive)
	require.NoError(t, err)
	_, err = f.users.Authenticate(ctx, "ada@news.test", testutil.Password)
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	user := f.store.SeedUser(t, "Ada", "ada@news.test", types.RoleUser)

	_, err := f.users.ChangePassword(ctx, user.ID, "Wrong123", "Newpass1")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	_, err = f.users.ChangePassword(ctx, user.ID, testutil.Password, "weak")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = f.users.ChangePassword(ctx, user.ID, testutil.Password, "Newpass1")
	require.NoError(t, err)

	_, err = f.users.Authenticate(ctx, "ada@news.test", "Newpass1")
	assert.NoError(t, err)
}

func TestChangeNameAndAvatar_RequirePassword(t *testing.T) {
	f := newFixture(t)
	user := f.store.SeedUser(t, "Ada", "ada@news.test", types.RoleUser)

	_, err := f.users.ChangeName(ctx, user.ID, "Wrong123", "Grace")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	updated, err := f.users.ChangeName(ctx, user.ID, testutil.Password, " Grace ")
	require.NoError(t, err)
	assert.Equal(t, "Grace", updated.Name)

	_, err = f.users.UpdateAvatarURL(ctx, user.ID, "", "https://img.test/a.png")
	assert.ErrorIs(t, err, ErrMissingFields)

	updated, err = f.users.UpdateAvatarURL(ctx, user.ID, testutil.Password, "https://img.test/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://img.test/a.png", updated.AvatarURL)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	user := f.store.SeedUser(t, "Ada", "ada@news.test", types.RoleUser)

	_, err := f.users.UpdateStatus(ctx, user.ID, "banned")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestActivate_OnlyTouchesPending(t *testing.T) {
	f := newFixture(t)
	user := f.store.SeedUser(t, "Ada", "ada@news.test", types.RoleReporter)

	inactive := types.UserStatusInactive
	_, err := f.store.Users().Update(ctx, user.ID, types.UserUpdate{Status: &inactive})
	require.NoError(t, err)

	require.NoError(t, f.users.Activate(ctx, user.ID))
	got, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, types.UserStatusInactive, got.Status)

	assert.ErrorIs(t, f.users.ActivateHex(ctx, "not-an-id"), store.ErrNotFound)
}

func TestListAndSearch(t *testing.T) {
	f := newFixture(t)
	f.store.SeedUser(t, "Ada Reader", "ada@news.test", types.RoleUser)
	f.store.SeedUser(t, "Bob Reader", "bob@news.test", types.RoleUser)
	f.store.SeedUser(t, "Ada Reporter", "ada.r@news.test", types.RoleReporter)

	all, err := f.users.List(ctx, "", types.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.TotalCount)

	reporters, err := f.users.List(ctx, types.RoleReporter, types.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, reporters.Items, 1)
	assert.Empty(t, reporters.Items[0].PasswordHash)

	found, err := f.users.Search(ctx, "ADA", types.RoleUser, types.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Ada Reader", found.Items[0].Name)

	_, err = f.users.Search(ctx, "  ", types.RoleUser, types.PageRequest{Page: 1, Limit: 10})
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = f.users.Search(ctx, "ada", types.RoleAdmin, types.PageRequest{Page: 1, Limit: 10})
	assert.ErrorIs(t, err, ErrInvalidUserType)

	_, err = f.users.Search(ctx, "ada", types.RoleUser, types.PageRequest{Page: 0, Limit: 10})
	assert.ErrorIs(t, err, ErrInvalidPagination)
}
