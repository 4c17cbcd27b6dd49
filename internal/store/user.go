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

const userColumns = `id, name, email, phone, country, language, device_id, fcm_token,
		verified, active, password_hash, password_changed_at,
		password_reset_token, password_reset_expires, otp, otp_expiry,
		login_at, created_at, updated_at`

// UserRepository handles persistence for end-user accounts.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.queryOne(ctx, query, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE LOWER(email) = LOWER($1) AND email <> ''`, userColumns)
	return r.queryOne(ctx, query, strings.TrimSpace(email))
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (types.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE phone = $1 AND phone <> ''`, userColumns)
	return r.queryOne(ctx, query, strings.TrimSpace(phone))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (name, email, phone, country, language, device_id, fcm_token,
			verified, active, password_hash, otp, otp_expiry, login_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		strings.ToLower(strings.TrimSpace(user.Email)),
		strings.TrimSpace(user.Phone),
		user.Country,
		user.Language,
		user.DeviceID,
		user.FCMToken,
		user.Verified,
		user.Active,
		user.PasswordHash,
		user.OTP,
		user.OTPExpiry,
		user.LoginAt,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	const query = `
		UPDATE users
		SET name = $1,
			email = $2,
			phone = $3,
			country = $4,
			language = $5,
			device_id = $6,
			fcm_token = $7,
			verified = $8,
			active = $9,
			login_at = $10,
			updated_at = $11
		WHERE id = $12`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Name,
		strings.ToLower(strings.TrimSpace(user.Email)),
		strings.TrimSpace(user.Phone),
		user.Country,
		user.Language,
		user.DeviceID,
		user.FCMToken,
		user.Verified,
		user.Active,
		user.LoginAt,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

// SetPassword replaces the stored hash and stamps password_changed_at.
// Called only when the plaintext password actually changes.
func (r *UserRepository) SetPassword(ctx context.Context, id int, hash string, changedAt time.Time) error {
	const query = `
		UPDATE users
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

// SetOTP stores a fresh one-time code, replacing any pending one.
func (r *UserRepository) SetOTP(ctx context.Context, id int, code string, expiry time.Time) error {
	const query = `
		UPDATE users
		SET otp = $1, otp_expiry = $2, updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, code, expiry, time.Now(), id)
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

// ConsumeOTP atomically verifies and clears a pending code, marking the
// account verified. Match and clear are one conditional update so two
// concurrent verifications cannot both succeed.
func (r *UserRepository) ConsumeOTP(ctx context.Context, phone, code string, now time.Time) (types.User, error) {
	query := fmt.Sprintf(`
		UPDATE users
		SET verified = TRUE, otp = NULL, otp_expiry = NULL, updated_at = $1
		WHERE phone = $2 AND otp = $3 AND otp_expiry > $4
		RETURNING %s`, userColumns)
	return r.queryOne(ctx, query, now, strings.TrimSpace(phone), code, now)
}

// ConsumeOTPForReset is ConsumeOTP without the verified flag, used by the
// password-reset flow.
func (r *UserRepository) ConsumeOTPForReset(ctx context.Context, phone, code string, now time.Time) (types.User, error) {
	query := fmt.Sprintf(`
		UPDATE users
		SET otp = NULL, otp_expiry = NULL, updated_at = $1
		WHERE phone = $2 AND otp = $3 AND otp_expiry > $4
		RETURNING %s`, userColumns)
	return r.queryOne(ctx, query, now, strings.TrimSpace(phone), code, now)
}

// Deactivate soft-deletes the account.
func (r *UserRepository) Deactivate(ctx context.Context, id int) error {
	const query = `UPDATE users SET active = FALSE, updated_at = $1 WHERE id = $2`
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

// ListFilter narrows List results.
type ListFilter struct {
	// Active filters on the active flag when non-nil.
	Active *bool

	// Search matches names case-insensitively when non-empty.
	Search string
}

func (r *UserRepository) List(ctx context.Context, filter ListFilter, offset, limit int) ([]types.User, int, error) {
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

	countQuery := fmt.Sprintf(`SELECT COUNT(1) FROM users WHERE %s`, where)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, offset, limit)
	listQuery := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE %s
		ORDER BY created_at DESC
		OFFSET $%d LIMIT $%d`, userColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]types.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) queryOne(ctx context.Context, query string, args ...any) (types.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	var changedAt, resetExpires, otpExpiry sql.NullTime
	var resetToken, otp sql.NullString
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Country,
		&user.Language,
		&user.DeviceID,
		&user.FCMToken,
		&user.Verified,
		&user.Active,
		&user.PasswordHash,
		&changedAt,
		&resetToken,
		&resetExpires,
		&otp,
		&otpExpiry,
		&user.LoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return types.User{}, err
	}
	if changedAt.Valid {
		user.PasswordChangedAt = &changedAt.Time
	}
	if resetToken.Valid {
		user.PasswordResetToken = &resetToken.String
	}
	if resetExpires.Valid {
		user.PasswordResetExpires = &resetExpires.Time
	}
	if otp.Valid {
		user.OTP = &otp.String
	}
	if otpExpiry.Valid {
		user.OTPExpiry = &otpExpiry.Time
	}
	return user, nil
}
