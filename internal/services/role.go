package services

import (
	"context"
	"errors"
	"strings"

	"github.com/tunebox/apiserver/internal/apperr"
	"github.com/tunebox/apiserver/internal/auth"
	"github.com/tunebox/apiserver/internal/store"
	"github.com/tunebox/apiserver/types"
)

// RoleRepository defines persistence operations for roles.
type RoleRepository interface {
	GetByID(ctx context.Context, id int) (types.Role, error)
	GetByName(ctx context.Context, name string) (types.Role, error)
	Create(ctx context.Context, role types.Role) (types.Role, error)
	Update(ctx context.Context, role types.Role) (types.Role, error)
	SetStatus(ctx context.Context, id int, status bool) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, offset, limit int) ([]types.Role, int, error)
}

// RoleAssignments reports which admins reference a role, so a role in use
// cannot be deleted out from under them.
type RoleAssignments interface {
	ListByRole(ctx context.Context, roleID int) ([]types.Admin, error)
}

// RoleService encapsulates role management use-cases and doubles as the
// permission resolver consulted during authentication.
type RoleService struct {
	repo        RoleRepository
	assignments RoleAssignments
}

func NewRoleService(repo RoleRepository, assignments RoleAssignments) *RoleService {
	return &RoleService{repo: repo, assignments: assignments}
}

func (s *RoleService) Get(ctx context.Context, id int) (types.Role, error) {
	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Role{}, apperr.NotFound("role not found")
		}
		return types.Role{}, err
	}
	return role, nil
}

func (s *RoleService) Create(ctx context.Context, role types.Role) (types.Role, error) {
	if strings.TrimSpace(role.RoleName) == "" {
		return types.Role{}, apperr.Validation("role name is required")
	}
	if _, err := s.repo.GetByName(ctx, role.RoleName); err == nil {
		return types.Role{}, apperr.Conflict("a role with this name already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.Role{}, err
	}
	return s.repo.Create(ctx, role)
}

func (s *RoleService) Update(ctx context.Context, role types.Role) (types.Role, error) {
	if strings.TrimSpace(role.RoleName) == "" {
		return types.Role{}, apperr.Validation("role name is required")
	}
	existing, err := s.repo.GetByName(ctx, role.RoleName)
	if err == nil && existing.ID != role.ID {
		return types.Role{}, apperr.Conflict("a role with this name already exists")
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return types.Role{}, err
	}

	updated, err := s.repo.Update(ctx, role)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Role{}, apperr.NotFound("role not found")
		}
		return types.Role{}, err
	}
	return updated, nil
}

func (s *RoleService) SetStatus(ctx context.Context, id int, status bool) error {
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("role not found")
		}
		return err
	}
	return nil
}

// Delete removes a role unless an admin still references it.
func (s *RoleService) Delete(ctx context.Context, id int) error {
	admins, err := s.assignments.ListByRole(ctx, id)
	if err != nil {
		return err
	}
	if len(admins) > 0 {
		return apperr.Conflict("role is assigned to %d admin(s) and cannot be deleted", len(admins))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("role not found")
		}
		return err
	}
	return nil
}

func (s *RoleService) List(ctx context.Context, offset, limit int) ([]types.Role, int, error) {
	return s.repo.List(ctx, offset, limit)
}

// ResolvePermissions maps a role reference to its permission set. An
// unassigned, dangling or disabled role reports auth.ErrRoleMissing.
func (s *RoleService) ResolvePermissions(ctx context.Context, roleID int) (types.PermissionSet, error) {
	if roleID == 0 {
		return nil, auth.ErrRoleMissing
	}
	role, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, auth.ErrRoleMissing
		}
		return nil, err
	}
	if !role.Status {
		return nil, auth.ErrRoleMissing
	}
	return role.RolePermissions, nil
}
