package types

import "time"

// Admin represents an administrative account. Unlike end-users, an admin
// always references a Role entity that carries its permission set.
type Admin struct {
	// ID is the unique identifier of the admin.
	ID int `json:"id" db:"id"`

	// Name is the admin's display name.
	Name string `json:"name" db:"name"`

	// Email is the admin's email address, stored lowercase and unique.
	Email string `json:"email" db:"email"`

	// Phone is the admin's phone number, optional.
	Phone string `json:"phone,omitempty" db:"phone"`

	// ProfileImage is the object-storage key of the admin's avatar.
	ProfileImage string `json:"profile_image,omitempty" db:"profile_image"`

	// RoleID references the Role whose permission set governs this admin.
	// Zero means no role is assigned, which blocks authentication.
	RoleID int `json:"role_id" db:"role_id"`

	// Active indicates whether the account may authenticate.
	Active bool `json:"active" db:"active"`

	// PasswordHash stores the bcrypt digest of the admin's password.
	// Never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// PasswordChangedAt is set whenever the password is mutated after
	// creation. Tokens issued before this instant are invalid.
	PasswordChangedAt *time.Time `json:"-" db:"password_changed_at"`

	// PasswordResetToken holds the SHA-256 digest of an outstanding
	// reset token. The raw token itself is never persisted.
	PasswordResetToken *string `json:"-" db:"password_reset_token"`

	// PasswordResetExpires bounds the validity of PasswordResetToken.
	PasswordResetExpires *time.Time `json:"-" db:"password_reset_expires"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
