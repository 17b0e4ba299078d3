package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryhub/internal/adapters/persistence/memory"
	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/password"
)

type welcomeSpy struct {
	user     *models.User
	password string
}

func (w *welcomeSpy) NotifyWelcome(_ context.Context, user *models.User, plain string) error {
	w.user, w.password = user, plain
	return nil
}

func init() {
	password.SetCost(4)
}

func TestCreateUserGeneratesPasswordAndWelcomes(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewSet()
	spy := &welcomeSpy{}
	svc := services.NewUserService(repos.Users, spy)

	created, err := svc.CreateUser(ctx, &services.CreateUserInput{Name: "Mia", Email: " Mia@Example.com "})
	require.NoError(t, err)
	assert.Equal(t, "mia@example.com", created.Email)
	assert.Equal(t, string(domain.RoleMember), created.Role)

	require.NotNil(t, spy.user)
	assert.Len(t, spy.password, 16)

	stored, err := repos.Users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, password.Verify(spy.password, stored.Password))

	_, err = svc.CreateUser(ctx, &services.CreateUserInput{Name: "Dup", Email: "mia@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = svc.CreateUser(ctx, &services.CreateUserInput{Name: "Bad", Email: "bad@example.com", Role: "ROOT"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestUserAdminGuards(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewSet()
	svc := services.NewUserService(repos.Users, nil)

	admin, err := svc.CreateUser(ctx, &services.CreateUserInput{Name: "Admin", Email: "admin@example.com", Password: "password1", Role: "admin"})
	require.NoError(t, err)
	member, err := svc.CreateUser(ctx, &services.CreateUserInput{Name: "Mia", Email: "mia@example.com", Password: "password1"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteUser(ctx, admin.ID, admin.ID), domain.ErrCannotDeleteSelf)

	role := "MEMBER"
	_, err = svc.UpdateUserByAdmin(ctx, admin.ID, admin.ID, &services.UpdateUserByAdminInput{Role: &role})
	assert.ErrorIs(t, err, domain.ErrCannotDemoteSelf)

	librarian := "LIBRARIAN"
	updated, err := svc.UpdateUserByAdmin(ctx, member.ID, admin.ID, &services.UpdateUserByAdminInput{Role: &librarian})
	require.NoError(t, err)
	assert.Equal(t, "LIBRARIAN", updated.Role)

	members, err := svc.ListMembers(ctx)
	require.NoError(t, err)
	assert.Empty(t, members)

	list, err := svc.ListUsers(ctx, &services.ListUsersInput{Search: "mia"})
	require.NoError(t, err)
	assert.Len(t, list.Users, 1)

	require.NoError(t, svc.DeleteUser(ctx, member.ID, admin.ID))
	_, err = svc.GetUserByID(ctx, member.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewSet()
	svc := services.NewUserService(repos.Users, nil)

	u, err := svc.CreateUser(ctx, &services.CreateUserInput{Name: "Mia", Email: "mia@example.com", Password: "password1"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, u.ID, &services.ChangePasswordInput{OldPassword: "wrong-one", NewPassword: "password2"})
	assert.ErrorIs(t, err, domain.ErrWrongOldPassword)

	err = svc.ChangePassword(ctx, u.ID, &services.ChangePasswordInput{OldPassword: "password1", NewPassword: "short"})
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, &services.ChangePasswordInput{OldPassword: "password1", NewPassword: "password2"}))
	stored, err := repos.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, password.Verify("password2", stored.Password))
}
