package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tunebox/apiserver/types"
)

const adminColumns = `id, name, email, phone, profile_image, role_id, active,
		password_hash, password_changed_at, password_reset_token,
		password_reset_expires, created_at, updated_at`

// AdminRepository handles persistence for administrative accounts.
type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetByID(ctx context.Context, id int) (types.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM admins WHERE id = $1`, adminColumns)
	return r.queryOne(ctx, query, id)
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (types.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM admins WHERE LOWER(email) = LOWER($1)`, adminColumns)
	return r.queryOne(ctx, query, strings.TrimSpace(email))
}

func (r *AdminRepository) Create(ctx context.Context, admin types.Admin) (types.Admin, error) {
	now := time.Now()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	const query = `
		INSERT INTO admins (name, email, phone, profile_image, role_id, active,
			password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		admin.Name,
		strings.ToLower(strings.TrimSpace(admin.Email)),
		admin.Phone,
		admin.ProfileImage,
		nullableID(admin.RoleID),
		admin.Active,
		admin.PasswordHash,
		admin.CreatedAt,
		admin.UpdatedAt,
	).Scan(&admin.ID); err != nil {
		return types.Admin{}, err
	}
	return admin, nil
}

func (r *AdminRepository) Update(ctx context.Context, admin types.Admin) (types.Admin, error) {
	admin.UpdatedAt = time.Now()

	const query = `
		UPDATE admins
		SET name = $1,
			email = $2,
			phone = $3,
			profile_image = $4,
			role_id = $5,
			active = $6,
			updated_at = $7
		WHERE id = $8`
	result, err := r.db.ExecContext(
		ctx,
		query,
		admin.Name,
		strings.ToLower(strings.TrimSpace(admin.Email)),
		admin.Phone,
		admin.ProfileImage,
		nullableID(admin.RoleID),
		admin.Active,
		admin.UpdatedAt,
		admin.ID,
	)
	if err != nil {
		return types.Admin{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Admin{}, err
	}
	if affected == 0 {
		return types.Admin{}, ErrNotFound
	}
	return admin, nil
}

// SetPassword replaces the stored hash, stamps password_changed_at and
// clears any outstanding reset token.
func (r *AdminRepository) SetPassword(ctx context.Context, id int, hash string, changedAt time.Time) error {
	const query = `
		UPDATE admins
		SET password_hash = $1,
			password_changed_at = $2,
			password_reset_token = NULL,
			password_reset_expires = NULL,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, hash, changedAt, time.Now(), id)
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

// SetResetToken stores the digest and expiry of a freshly issued reset
// token, superseding any previous one.
func (r *AdminRepository) SetResetToken(ctx context.Context, id int, tokenHash string, expires time.Time) error {
	const query = `
		UPDATE admins
		SET password_reset_token = $1, password_reset_expires = $2, updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, tokenHash, expires, time.Now(), id)
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

// ConsumeResetToken atomically matches an unexpired reset-token digest,
// replaces the password and clears the token. One conditional update, so
// a token can be redeemed at most once.
func (r *AdminRepository) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string, now time.Time) (types.Admin, error) {
	query := fmt.Sprintf(`
		UPDATE admins
		SET password_hash = $1,
			password_changed_at = $2,
			password_reset_token = NULL,
			password_reset_expires = NULL,
			updated_at = $3
		WHERE password_reset_token = $4 AND password_reset_expires > $5
		RETURNING %s`, adminColumns)
	return r.queryOne(ctx, query, newPasswordHash, now, now, tokenHash, now)
}

// Deactivate soft-deletes the account.
func (r *AdminRepository) Deactivate(ctx context.Context, id int) error {
	const query = `UPDATE admins SET active = FALSE, updated_at = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
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

func (r *AdminRepository) List(ctx context.Context, filter ListFilter, offset, limit int) ([]types.Admin, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 10
	}

	where := "TRUE"
	args := []any{}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		where += fmt.Sprintf(" AND active = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(1) FROM admins WHERE %s`, where)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, offset, limit)
	listQuery := fmt.Sprintf(`
		SELECT %s FROM admins
		WHERE %s
		ORDER BY created_at DESC
		OFFSET $%d LIMIT $%d`, adminColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	admins := make([]types.Admin, 0, limit)
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, 0, err
		}
		admins = append(admins, admin)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return admins, total, nil
}

// ListByRole returns all admins referencing the given role.
func (r *AdminRepository) ListByRole(ctx context.Context, roleID int) ([]types.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM admins WHERE role_id = $1 ORDER BY id`, adminColumns)
	rows, err := r.db.QueryContext(ctx, query, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []types.Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, admin)
	}
	return admins, rows.Err()
}

func (r *AdminRepository) queryOne(ctx context.Context, query string, args ...any) (types.Admin, error) {
	admin, err := scanAdmin(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Admin{}, ErrNotFound
		}
		return types.Admin{}, err
	}
	return admin, nil
}

func scanAdmin(row rowScanner) (types.Admin, error) {
	var admin types.Admin
	var roleID sql.NullInt64
	var changedAt, resetExpires sql.NullTime
	var resetToken sql.NullString
	if err := row.Scan(
		&admin.ID,
		&admin.Name,
		&admin.Email,
		&admin.Phone,
		&admin.ProfileImage,
		&roleID,
		&admin.Active,
		&admin.PasswordHash,
		&changedAt,
		&resetToken,
		&resetExpires,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	); err != nil {
		return types.Admin{}, err
	}
	if roleID.Valid {
		admin.RoleID = int(roleID.Int64)
	}
	if changedAt.Valid {
		admin.PasswordChangedAt = &changedAt.Time
	}
	if resetToken.Valid {
		admin.PasswordResetToken = &resetToken.String
	}
	if resetExpires.Valid {
		admin.PasswordResetExpires = &resetExpires.Time
	}
	return admin, nil
}

func nullableID(id int) any {
	if id == 0 {
		return nil
	}
	return id
}
