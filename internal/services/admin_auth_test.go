package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tunebox/apiserver/internal/apperr"
	"github.com/tunebox/apiserver/internal/auth"
	"github.com/tunebox/apiserver/internal/store"
	"github.com/tunebox/apiserver/types"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

type fakeAdminRepo struct {
	admins map[int]types.Admin
	nextID int
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{admins: map[int]types.Admin{}, nextID: 1}
}

func (r *fakeAdminRepo) GetByID(_ context.Context, id int) (types.Admin, error) {
	admin, ok := r.admins[id]
	if !ok {
		return types.Admin{}, store.ErrNotFound
	}
	return admin, nil
}

func (r *fakeAdminRepo) GetByEmail(_ context.Context, email string) (types.Admin, error) {
	for _, admin := range r.admins {
		if admin.Email == email {
			return admin, nil
		}
	}
	return types.Admin{}, store.ErrNotFound
}

func (r *fakeAdminRepo) Create(_ context.Context, admin types.Admin) (types.Admin, error) {
	admin.ID = r.nextID
	r.nextID++
	r.admins[admin.ID] = admin
	return admin, nil
}

func (r *fakeAdminRepo) Update(_ context.Context, admin types.Admin) (types.Admin, error) {
	if _, ok := r.admins[admin.ID]; !ok {
		return types.Admin{}, store.ErrNotFound
	}
	r.admins[admin.ID] = admin
	return admin, nil
}

func (r *fakeAdminRepo) SetPassword(_ context.Context, id int, hash string, changedAt time.Time) error {
	admin, ok := r.admins[id]
	if !ok {
		return store.ErrNotFound
	}
	admin.PasswordHash = hash
	admin.PasswordChangedAt = &changedAt
	admin.PasswordResetToken = nil
	admin.PasswordResetExpires = nil
	r.admins[id] = admin
	return nil
}

func (r *fakeAdminRepo) SetResetToken(_ context.Context, id int, tokenHash string, expires time.Time) error {
	admin, ok := r.admins[id]
	if !ok {
		return store.ErrNotFound
	}
	admin.PasswordResetToken = &tokenHash
	admin.PasswordResetExpires = &expires
	r.admins[id] = admin
	return nil
}

func (r *fakeAdminRepo) ConsumeResetToken(_ context.Context, tokenHash, newPasswordHash string, now time.Time) (types.Admin, error) {
	for id, admin := range r.admins {
		if admin.PasswordResetToken == nil || *admin.PasswordResetToken != tokenHash {
			continue
		}
		if admin.PasswordResetExpires == nil || !admin.PasswordResetExpires.After(now) {
			continue
		}
		admin.PasswordHash = newPasswordHash
		admin.PasswordChangedAt = &now
		admin.PasswordResetToken = nil
		admin.PasswordResetExpires = nil
		r.admins[id] = admin
		return admin, nil
	}
	return types.Admin{}, store.ErrNotFound
}

func (r *fakeAdminRepo) Deactivate(_ context.Context, id int) error {
	admin, ok := r.admins[id]
	if !ok {
		return store.ErrNotFound
	}
	admin.Active = false
	r.admins[id] = admin
	return nil
}

func (r *fakeAdminRepo) List(_ context.Context, _ store.ListFilter, _, _ int) ([]types.Admin, int, error) {
	admins := make([]types.Admin, 0, len(r.admins))
	for _, admin := range r.admins {
		admins = append(admins, admin)
	}
	return admins, len(admins), nil
}

func (r *fakeAdminRepo) ListByRole(_ context.Context, roleID int) ([]types.Admin, error) {
	var admins []types.Admin
	for _, admin := range r.admins {
		if admin.RoleID == roleID {
			admins = append(admins, admin)
		}
	}
	return admins, nil
}

type fakeRoleRepo struct {
	roles map[int]types.Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: map[int]types.Role{}}
}

func (r *fakeRoleRepo) GetByID(_ context.Context, id int) (types.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return types.Role{}, store.ErrNotFound
	}
	return role, nil
}

func (r *fakeRoleRepo) GetByName(_ context.Context, name string) (types.Role, error) {
	for _, role := range r.roles {
		if role.RoleName == name {
			return role, nil
		}
	}
	return types.Role{}, store.ErrNotFound
}

func (r *fakeRoleRepo) Create(_ context.Context, role types.Role) (types.Role, error) {
	role.ID = len(r.roles) + 1
	r.roles[role.ID] = role
	return role, nil
}

func (r *fakeRoleRepo) Update(_ context.Context, role types.Role) (types.Role, error) {
	if _, ok := r.roles[role.ID]; !ok {
		return types.Role{}, store.ErrNotFound
	}
	r.roles[role.ID] = role
	return role, nil
}

func (r *fakeRoleRepo) SetStatus(_ context.Context, id int, status bool) error {
	role, ok := r.roles[id]
	if !ok {
		return store.ErrNotFound
	}
	role.Status = status
	r.roles[id] = role
	return nil
}

func (r *fakeRoleRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.roles[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.roles, id)
	return nil
}

func (r *fakeRoleRepo) List(_ context.Context, _, _ int) ([]types.Role, int, error) {
	roles := make([]types.Role, 0, len(r.roles))
	for _, role := range r.roles {
		roles = append(roles, role)
	}
	return roles, len(roles), nil
}

func adminServiceFixture(t *testing.T) (*AdminAuthService, *fakeAdminRepo, *fakeRoleRepo, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	repo := newFakeAdminRepo()
	roles := newFakeRoleRepo()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenService([]byte("secret"), time.Hour, clock)
	return NewAdminAuthService(repo, roles, hasher, tokens, clock), repo, roles, clock
}

func TestAdminRegisterAndLogin(t *testing.T) {
	svc, _, roles, _ := adminServiceFixture(t)
	roles.roles[1] = types.Role{
		ID: 1, RoleName: "SUPPORT", Status: true,
		RolePermissions: types.PermissionSet{{Component: "Users"}},
	}

	admin, err := svc.Register(context.Background(), RegisterAdminInput{
		Name:     "Ops",
		Email:    "ops@example.com",
		Password: "long-enough-pw",
		RoleID:   1,
	})
	require.NoError(t, err)
	assert.NotZero(t, admin.ID)
	assert.NotEmpty(t, admin.PasswordHash)
	assert.NotEqual(t, "long-enough-pw", admin.PasswordHash)

	got, permissions, token, err := svc.Login(context.Background(), "ops@example.com", "long-enough-pw")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)
	assert.NotEmpty(t, token)
	require.Len(t, permissions, 1)
	assert.Equal(t, "Users", permissions[0].Component)
}

func TestAdminRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := adminServiceFixture(t)

	input := RegisterAdminInput{Name: "A", Email: "dup@example.com", Password: "long-enough-pw"}
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), input)
	assert.Equal(t, http.StatusConflict, apperr.StatusOf(err))
}

func TestAdminLoginCollapsesRejections(t *testing.T) {
	svc, _, _, _ := adminServiceFixture(t)

	_, err := svc.Register(context.Background(), RegisterAdminInput{
		Name: "A", Email: "a@example.com", Password: "long-enough-pw", RoleID: 1,
	})
	require.NoError(t, err)

	_, _, _, errUnknown := svc.Login(context.Background(), "nobody@example.com", "whatever-pw")
	_, _, _, errWrongPw := svc.Login(context.Background(), "a@example.com", "wrong-password")

	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(errUnknown))
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(errWrongPw))
	assert.Equal(t, apperr.MessageOf(errUnknown), apperr.MessageOf(errWrongPw))
}

func TestAdminLoginInactive(t *testing.T) {
	svc, repo, _, _ := adminServiceFixture(t)

	admin, err := svc.Register(context.Background(), RegisterAdminInput{
		Name: "A", Email: "a@example.com", Password: "long-enough-pw", RoleID: 1,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Deactivate(context.Background(), admin.ID))

	_, _, _, err = svc.Login(context.Background(), "a@example.com", "long-enough-pw")
	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(err))
}

func TestAdminLoginWithoutRole(t *testing.T) {
	svc, _, _, _ := adminServiceFixture(t)

	_, err := svc.Register(context.Background(), RegisterAdminInput{
		Name: "A", Email: "a@example.com", Password: "long-enough-pw",
	})
	require.NoError(t, err)

	_, _, _, err = svc.Login(context.Background(), "a@example.com", "long-enough-pw")
	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(err))
}

func TestAdminForgotAndResetPassword(t *testing.T) {
	svc, _, roles, _ := adminServiceFixture(t)
	roles.roles[1] = types.Role{ID: 1, RoleName: "SUPPORT", Status: true}

	_, err := svc.Register(context.Background(), RegisterAdminInput{
		Name: "A", Email: "a@example.com", Password: "long-enough-pw", RoleID: 1,
	})
	require.NoError(t, err)

	raw, err := svc.ForgotPassword(context.Background(), "a@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	admin, err := svc.ResetPassword(context.Background(), raw, "brand-new-password")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", admin.Email)

	_, _, token, err := svc.Login(context.Background(), "a@example.com", "brand-new-password")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	// A token is single-use.
	_, err = svc.ResetPassword(context.Background(), raw, "another-password-x")
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

func TestAdminResetPasswordExpiredToken(t *testing.T) {
	svc, _, _, clock := adminServiceFixture(t)

	_, err := svc.Register(context.Background(), RegisterAdminInput{
		Name: "A", Email: "a@example.com", Password: "long-enough-pw", RoleID: 1,
	})
	require.NoError(t, err)

	raw, err := svc.ForgotPassword(context.Background(), "a@example.com")
	require.NoError(t, err)

	clock.Advance(auth.ResetTokenTTL + time.Minute)
	_, err = svc.ResetPassword(context.Background(), raw, "brand-new-password")
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

func TestAdminForgotPasswordUnknownEmail(t *testing.T) {
	svc, _, _, _ := adminServiceFixture(t)

	_, err := svc.ForgotPassword(context.Background(), "ghost@example.com")
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
}

func TestAdminUpdatePassword(t *testing.T) {
	svc, repo, _, clock := adminServiceFixture(t)

	admin, err := svc.Register(context.Background(), RegisterAdminInput{
		Name: "A", Email: "a@example.com", Password: "long-enough-pw", RoleID: 1,
	})
	require.NoError(t, err)

	err = svc.UpdatePassword(context.Background(), admin.ID, "wrong-current", "next-password-1")
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))

	err = svc.UpdatePassword(context.Background(), admin.ID, "long-enough-pw", "next-password-1")
	require.NoError(t, err)

	stored := repo.admins[admin.ID]
	require.NotNil(t, stored.PasswordChangedAt)
	assert.True(t, stored.PasswordChangedAt.Before(clock.Now()))
}

func TestAdminFindPrincipal(t *testing.T) {
	svc, _, _, _ := adminServiceFixture(t)

	admin, err := svc.Register(context.Background(), RegisterAdminInput{
		Name: "A", Email: "a@example.com", Password: "long-enough-pw", RoleID: 3,
	})
	require.NoError(t, err)

	principal, err := svc.FindPrincipal(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, principal.ID)
	assert.Equal(t, 3, principal.RoleID)
	assert.True(t, principal.Active)

	_, err = svc.FindPrincipal(context.Background(), 999)
	assert.ErrorIs(t, err, auth.ErrPrincipalNotFound)
}
