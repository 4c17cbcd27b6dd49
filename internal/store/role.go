package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/tunebox/apiserver/types"
)

// RoleRepository handles persistence for roles. The permission tree is
// stored as a JSON column, mirroring its nested shape.
type RoleRepository struct {
	db *sql.DB
}

func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetByID(ctx context.Context, id int) (types.Role, error) {
	const query = `
		SELECT id, role_name, role_permissions, status, created_at, updated_at
		FROM roles
		WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (types.Role, error) {
	const query = `
		SELECT id, role_name, role_permissions, status, created_at, updated_at
		FROM roles
		WHERE LOWER(role_name) = LOWER($1)`
	return r.queryOne(ctx, query, strings.TrimSpace(name))
}

func (r *RoleRepository) Create(ctx context.Context, role types.Role) (types.Role, error) {
	now := time.Now()
	role.CreatedAt = now
	role.UpdatedAt = now
	role.RoleName = strings.ToUpper(strings.TrimSpace(role.RoleName))

	permissionsJSON, err := json.Marshal(role.RolePermissions)
	if err != nil {
		return types.Role{}, err
	}

	const query = `
		INSERT INTO roles (role_name, role_permissions, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		role.RoleName,
		permissionsJSON,
		role.Status,
		role.CreatedAt,
		role.UpdatedAt,
	).Scan(&role.ID); err != nil {
		return types.Role{}, err
	}
	return role, nil
}

func (r *RoleRepository) Update(ctx context.Context, role types.Role) (types.Role, error) {
	role.UpdatedAt = time.Now()
	role.RoleName = strings.ToUpper(strings.TrimSpace(role.RoleName))

	permissionsJSON, err := json.Marshal(role.RolePermissions)
	if err != nil {
		return types.Role{}, err
	}

	const query = `
		UPDATE roles
		SET role_name = $1,
			role_permissions = $2,
			status = $3,
			updated_at = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		role.RoleName,
		permissionsJSON,
		role.Status,
		role.UpdatedAt,
		role.ID,
	)
	if err != nil {
		return types.Role{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Role{}, err
	}
	if affected == 0 {
		return types.Role{}, ErrNotFound
	}
	return role, nil
}

// SetStatus toggles a role active/inactive.
func (r *RoleRepository) SetStatus(ctx context.Context, id int, status bool) error {
	const query = `UPDATE roles SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RoleRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM roles WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RoleRepository) List(ctx context.Context, offset, limit int) ([]types.Role, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM roles`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, role_name, role_permissions, status, created_at, updated_at
		FROM roles
		ORDER BY role_name
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	roles := make([]types.Role, 0, limit)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, 0, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return roles, total, nil
}

func (r *RoleRepository) queryOne(ctx context.Context, query string, args ...any) (types.Role, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Role{}, ErrNotFound
		}
		return types.Role{}, err
	}
	return role, nil
}

func scanRole(row rowScanner) (types.Role, error) {
	var role types.Role
	var permissionsJSON []byte
	if err := row.Scan(
		&role.ID,
		&role.RoleName,
		&permissionsJSON,
		&role.Status,
		&role.CreatedAt,
		&role.UpdatedAt,
	); err != nil {
		return types.Role{}, err
	}
	_ = json.Unmarshal(permissionsJSON, &role.RolePermissions)
	return role, nil
}
