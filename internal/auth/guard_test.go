package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunebox/apiserver/internal/apperr"
	"github.com/tunebox/apiserver/types"
)

type fakePrincipals struct {
	byID map[int]Principal
}

func (f *fakePrincipals) FindPrincipal(_ context.Context, id int) (Principal, error) {
	principal, ok := f.byID[id]
	if !ok {
		return Principal{}, ErrPrincipalNotFound
	}
	return principal, nil
}

type fakeRoles struct {
	permissions map[int]types.PermissionSet
}

func (f *fakeRoles) ResolvePermissions(_ context.Context, roleID int) (types.PermissionSet, error) {
	permissions, ok := f.permissions[roleID]
	if !ok {
		return nil, ErrRoleMissing
	}
	return permissions, nil
}

func guardFixture(t *testing.T, cfg GuardConfig) (*Guard, *TokenService, *fakeClock, *fakePrincipals, *fakeRoles) {
	t.Helper()
	clock := newFakeClock()
	tokens := NewTokenService([]byte("secret"), time.Hour, clock)
	principals := &fakePrincipals{byID: map[int]Principal{}}
	roles := &fakeRoles{permissions: map[int]types.PermissionSet{}}
	return NewGuard(tokens, principals, roles, cfg), tokens, clock, principals, roles
}

func TestGuardAdmitsValidToken(t *testing.T) {
	guard, tokens, _, principals, _ := guardFixture(t, GuardConfig{})
	principals.byID[1] = Principal{ID: 1, Email: "a@b.c", Active: true}

	token, err := tokens.IssueAccessToken(1)
	require.NoError(t, err)

	principal, err := guard.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, 1, principal.ID)
	assert.Equal(t, "a@b.c", principal.Email)
}

func TestGuardRejectsMissingToken(t *testing.T) {
	guard, _, _, _, _ := guardFixture(t, GuardConfig{})

	_, err := guard.Authenticate(context.Background(), "")
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
}

func TestGuardRejectsExpiredToken(t *testing.T) {
	guard, tokens, clock, principals, _ := guardFixture(t, GuardConfig{})
	principals.byID[1] = Principal{ID: 1, Active: true}

	token, err := tokens.IssueAccessToken(1)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = guard.Authenticate(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
	assert.Contains(t, apperr.MessageOf(err), "expired")
}

func TestGuardRejectsUnknownPrincipal(t *testing.T) {
	guard, tokens, _, _, _ := guardFixture(t, GuardConfig{})

	token, err := tokens.IssueAccessToken(99)
	require.NoError(t, err)

	_, err = guard.Authenticate(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
	assert.Contains(t, apperr.MessageOf(err), "no longer exists")
}

func TestGuardRejectsDeactivatedPrincipal(t *testing.T) {
	guard, tokens, _, principals, _ := guardFixture(t, GuardConfig{})
	principals.byID[1] = Principal{ID: 1, Active: false}

	token, err := tokens.IssueAccessToken(1)
	require.NoError(t, err)

	_, err = guard.Authenticate(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
	assert.Contains(t, apperr.MessageOf(err), "deactivated")
}

func TestGuardRejectsStalePassword(t *testing.T) {
	guard, tokens, clock, principals, _ := guardFixture(t, GuardConfig{})

	token, err := tokens.IssueAccessToken(1)
	require.NoError(t, err)

	// Password changed after the token was issued.
	clock.Advance(time.Minute)
	changed := clock.Now()
	principals.byID[1] = Principal{ID: 1, Active: true, PasswordChangedAt: &changed}

	_, err = guard.Authenticate(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
	assert.Contains(t, apperr.MessageOf(err), "password was changed")
}

func TestGuardAcceptsPasswordChangedBeforeIssue(t *testing.T) {
	guard, tokens, clock, principals, _ := guardFixture(t, GuardConfig{})

	changed := clock.Now().Add(-time.Hour)
	principals.byID[1] = Principal{ID: 1, Active: true, PasswordChangedAt: &changed}

	token, err := tokens.IssueAccessToken(1)
	require.NoError(t, err)

	_, err = guard.Authenticate(context.Background(), token)
	assert.NoError(t, err)
}

func TestGuardRequireRole(t *testing.T) {
	guard, tokens, _, principals, roles := guardFixture(t, GuardConfig{RequireRole: true})
	permissions := types.PermissionSet{{Component: "dashboard"}}
	roles.permissions[5] = permissions
	principals.byID[1] = Principal{ID: 1, Active: true, RoleID: 5}
	principals.byID[2] = Principal{ID: 2, Active: true, RoleID: 0}

	token, err := tokens.IssueAccessToken(1)
	require.NoError(t, err)
	principal, err := guard.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, permissions, principal.Permissions)

	token, err = tokens.IssueAccessToken(2)
	require.NoError(t, err)
	_, err = guard.Authenticate(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
	assert.Contains(t, apperr.MessageOf(err), "role")
}

func TestGuardSkipsRoleWhenNotRequired(t *testing.T) {
	guard, tokens, _, principals, _ := guardFixture(t, GuardConfig{})
	principals.byID[1] = Principal{ID: 1, Active: true, RoleID: 0}

	token, err := tokens.IssueAccessToken(1)
	require.NoError(t, err)

	principal, err := guard.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Nil(t, principal.Permissions)
}
