package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tunebox/apiserver/internal/apperr"
	"github.com/tunebox/apiserver/internal/auth"
	"github.com/tunebox/apiserver/internal/store"
	"github.com/tunebox/apiserver/types"
)

// AdminRepository defines persistence operations for admin accounts.
type AdminRepository interface {
	GetByID(ctx context.Context, id int) (types.Admin, error)
	GetByEmail(ctx context.Context, email string) (types.Admin, error)
	Create(ctx context.Context, admin types.Admin) (types.Admin, error)
	Update(ctx context.Context, admin types.Admin) (types.Admin, error)
	SetPassword(ctx context.Context, id int, hash string, changedAt time.Time) error
	SetResetToken(ctx context.Context, id int, tokenHash string, expires time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string, now time.Time) (types.Admin, error)
	Deactivate(ctx context.Context, id int) error
	List(ctx context.Context, filter store.ListFilter, offset, limit int) ([]types.Admin, int, error)
}

// AdminAuthService encapsulates the admin vertical: registration, login,
// password lifecycle and account management.
type AdminAuthService struct {
	repo   AdminRepository
	roles  RoleRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenService
	clock  auth.Clock
}

func NewAdminAuthService(repo AdminRepository, roles RoleRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService, clock auth.Clock) *AdminAuthService {
	if clock == nil {
		clock = auth.SystemClock()
	}
	return &AdminAuthService{repo: repo, roles: roles, hasher: hasher, tokens: tokens, clock: clock}
}

// RegisterAdminInput carries the fields accepted at registration.
type RegisterAdminInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	RoleID   int    `json:"role_id"`
}

func (s *AdminAuthService) Register(ctx context.Context, input RegisterAdminInput) (types.Admin, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" {
		return types.Admin{}, apperr.Validation("name and email are required")
	}
	if len(input.Password) < 8 {
		return types.Admin{}, apperr.Validation("password must be at least 8 characters")
	}

	if _, err := s.repo.GetByEmail(ctx, input.Email); err == nil {
		return types.Admin{}, apperr.Conflict("an account with this email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.Admin{}, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return types.Admin{}, err
	}

	return s.repo.Create(ctx, types.Admin{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		RoleID:       input.RoleID,
		Active:       true,
		PasswordHash: hash,
	})
}

// Login authenticates by email and password and returns a signed token
// together with the role's permission set. Unknown email and wrong
// password produce the same rejection.
func (s *AdminAuthService) Login(ctx context.Context, email, password string) (types.Admin, types.PermissionSet, string, error) {
	if email == "" || password == "" {
		return types.Admin{}, nil, "", apperr.Validation("please provide email and password")
	}

	admin, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Admin{}, nil, "", apperr.Unauthorized("incorrect email or password")
		}
		return types.Admin{}, nil, "", err
	}
	if !s.hasher.Verify(password, admin.PasswordHash) {
		return types.Admin{}, nil, "", apperr.Unauthorized("incorrect email or password")
	}
	if !admin.Active {
		return types.Admin{}, nil, "", apperr.Forbidden("your account has been deactivated, please contact an administrator")
	}
	if admin.RoleID == 0 {
		return types.Admin{}, nil, "", apperr.Forbidden("no role is assigned to your account")
	}
	role, err := s.roles.GetByID(ctx, admin.RoleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Admin{}, nil, "", apperr.Forbidden("your role has been removed, please contact an administrator")
		}
		return types.Admin{}, nil, "", err
	}

	token, err := s.tokens.IssueAccessToken(admin.ID)
	if err != nil {
		return types.Admin{}, nil, "", err
	}
	return admin, role.RolePermissions, token, nil
}

func (s *AdminAuthService) Get(ctx context.Context, id int) (types.Admin, error) {
	admin, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Admin{}, apperr.NotFound("admin not found")
		}
		return types.Admin{}, err
	}
	return admin, nil
}

// UpdateProfileInput carries the mutable profile fields.
type UpdateProfileInput struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	ProfileImage string `json:"profile_image"`
}

func (s *AdminAuthService) UpdateProfile(ctx context.Context, id int, input UpdateProfileInput) (types.Admin, error) {
	admin, err := s.Get(ctx, id)
	if err != nil {
		return types.Admin{}, err
	}
	if input.Name != "" {
		admin.Name = input.Name
	}
	if input.Phone != "" {
		admin.Phone = input.Phone
	}
	if input.ProfileImage != "" {
		admin.ProfileImage = input.ProfileImage
	}
	return s.repo.Update(ctx, admin)
}

// UpdateAdmin applies a full administrative edit, including role and
// active-flag changes.
func (s *AdminAuthService) UpdateAdmin(ctx context.Context, admin types.Admin) (types.Admin, error) {
	updated, err := s.repo.Update(ctx, admin)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Admin{}, apperr.NotFound("admin not found")
		}
		return types.Admin{}, err
	}
	return updated, nil
}

// UpdatePassword verifies the current password before replacing it.
func (s *AdminAuthService) UpdatePassword(ctx context.Context, id int, current, next string) error {
	if len(next) < 8 {
		return apperr.Validation("password must be at least 8 characters")
	}
	admin, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, admin.PasswordHash) {
		return apperr.Unauthorized("your current password is wrong")
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	return s.repo.SetPassword(ctx, id, hash, passwordStamp(s.clock))
}

// ForgotPassword issues a single-use reset token for the account. Only the
// token's digest is stored; the raw token is handed back for delivery.
func (s *AdminAuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	admin, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", apperr.NotFound("there is no account with that email address")
		}
		return "", err
	}

	raw, storedHash, expiry, err := s.tokens.IssueResetToken()
	if err != nil {
		return "", err
	}
	if err := s.repo.SetResetToken(ctx, admin.ID, storedHash, expiry); err != nil {
		return "", err
	}
	return raw, nil
}

// ResetPassword redeems a raw reset token for a new password. Redemption
// is atomic in the store, so a token works at most once.
func (s *AdminAuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) (types.Admin, error) {
	if len(newPassword) < 8 {
		return types.Admin{}, apperr.Validation("password must be at least 8 characters")
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return types.Admin{}, err
	}

	admin, err := s.repo.ConsumeResetToken(ctx, auth.HashResetToken(rawToken), hash, s.clock.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Admin{}, apperr.Validation("token is invalid or has expired")
		}
		return types.Admin{}, err
	}
	return admin, nil
}

// Permissions returns the permission set of the admin's role.
func (s *AdminAuthService) Permissions(ctx context.Context, id int) (types.PermissionSet, error) {
	admin, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if admin.RoleID == 0 {
		return nil, apperr.Forbidden("no role is assigned to your account")
	}
	role, err := s.roles.GetByID(ctx, admin.RoleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Forbidden("your role has been removed, please contact an administrator")
		}
		return nil, err
	}
	return role.RolePermissions, nil
}

func (s *AdminAuthService) List(ctx context.Context, filter store.ListFilter, offset, limit int) ([]types.Admin, int, error) {
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *AdminAuthService) Deactivate(ctx context.Context, id int) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("admin not found")
		}
		return err
	}
	return nil
}

// FindPrincipal adapts admin accounts to the guard's principal lookup.
func (s *AdminAuthService) FindPrincipal(ctx context.Context, id int) (auth.Principal, error) {
	admin, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return auth.Principal{}, auth.ErrPrincipalNotFound
		}
		return auth.Principal{}, err
	}
	return auth.Principal{
		ID:                admin.ID,
		Email:             admin.Email,
		Phone:             admin.Phone,
		Active:            admin.Active,
		RoleID:            admin.RoleID,
		PasswordChangedAt: admin.PasswordChangedAt,
	}, nil
}

// passwordStamp backdates password_changed_at by one second so a token
// issued in the same second as the change still fails the staleness check.
func passwordStamp(clock auth.Clock) time.Time {
	return clock.Now().Add(-time.Second)
}
