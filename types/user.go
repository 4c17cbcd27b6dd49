package types

import "time"

// User represents an end-user account in the system.
// A user is identified by a unique email, a unique phone number, or both.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address, stored lowercase and unique.
	Email string `json:"email,omitempty" db:"email"`

	// Phone is the user's phone number, unique when set. Used by the
	// OTP-based login and password-reset flows.
	Phone string `json:"phone,omitempty" db:"phone"`

	// Country is an optional ISO country code.
	Country string `json:"country,omitempty" db:"country"`

	// Language is the user's preferred language code.
	Language string `json:"language,omitempty" db:"language"`

	// DeviceID identifies the device used at the last login.
	DeviceID string `json:"device_id,omitempty" db:"device_id"`

	// FCMToken is the push-notification token for the user's device.
	FCMToken string `json:"fcm_token,omitempty" db:"fcm_token"`

	// Verified reports whether the user's phone number has been
	// confirmed through OTP verification.
	Verified bool `json:"verified" db:"verified"`

	// Active indicates whether the account may authenticate.
	// Inactive accounts are rejected regardless of credentials.
	Active bool `json:"active" db:"active"`

	// PasswordHash stores the bcrypt digest of the user's password.
	// Empty for accounts created through social or phone login.
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

	// OTP is the pending one-time code for phone verification, if any.
	OTP *string `json:"-" db:"otp"`

	// OTPExpiry bounds the validity of OTP.
	OTPExpiry *time.Time `json:"-" db:"otp_expiry"`

	// LoginAt is the unix timestamp of the most recent login.
	LoginAt int64 `json:"login_at,omitempty" db:"login_at"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
