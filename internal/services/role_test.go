package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunebox/apiserver/internal/apperr"
	"github.com/tunebox/apiserver/internal/auth"
	"github.com/tunebox/apiserver/types"
)

func roleServiceFixture(t *testing.T) (*RoleService, *fakeRoleRepo, *fakeAdminRepo) {
	t.Helper()
	roles := newFakeRoleRepo()
	admins := newFakeAdminRepo()
	return NewRoleService(roles, admins), roles, admins
}

func TestRoleCreateDuplicateName(t *testing.T) {
	svc, _, _ := roleServiceFixture(t)

	_, err := svc.Create(context.Background(), types.Role{RoleName: "SUPPORT", Status: true})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), types.Role{RoleName: "SUPPORT"})
	assert.Equal(t, http.StatusConflict, apperr.StatusOf(err))
}

func TestRoleCreateRequiresName(t *testing.T) {
	svc, _, _ := roleServiceFixture(t)

	_, err := svc.Create(context.Background(), types.Role{RoleName: "  "})
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

func TestRoleDeleteBlockedWhileAssigned(t *testing.T) {
	svc, _, admins := roleServiceFixture(t)

	role, err := svc.Create(context.Background(), types.Role{RoleName: "SUPPORT", Status: true})
	require.NoError(t, err)

	_, err = admins.Create(context.Background(), types.Admin{Name: "A", RoleID: role.ID})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), role.ID)
	assert.Equal(t, http.StatusConflict, apperr.StatusOf(err))
}

func TestRoleDelete(t *testing.T) {
	svc, _, _ := roleServiceFixture(t)

	role, err := svc.Create(context.Background(), types.Role{RoleName: "TEMP", Status: true})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), role.ID))

	err = svc.Delete(context.Background(), role.ID)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
}

func TestResolvePermissions(t *testing.T) {
	svc, roles, _ := roleServiceFixture(t)

	permissions := types.PermissionSet{{Component: "Dashboard"}}
	role, err := svc.Create(context.Background(), types.Role{
		RoleName: "SUPPORT", RolePermissions: permissions, Status: true,
	})
	require.NoError(t, err)

	got, err := svc.ResolvePermissions(context.Background(), role.ID)
	require.NoError(t, err)
	assert.Equal(t, permissions, got)

	// Unassigned role reference.
	_, err = svc.ResolvePermissions(context.Background(), 0)
	assert.ErrorIs(t, err, auth.ErrRoleMissing)

	// Dangling role reference.
	_, err = svc.ResolvePermissions(context.Background(), 999)
	assert.ErrorIs(t, err, auth.ErrRoleMissing)

	// Disabled role.
	require.NoError(t, roles.SetStatus(context.Background(), role.ID, false))
	_, err = svc.ResolvePermissions(context.Background(), role.ID)
	assert.ErrorIs(t, err, auth.ErrRoleMissing)
}
