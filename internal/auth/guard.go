package auth

import (
	"context"
	"errors"
	"time"

	"github.com/tunebox/apiserver/internal/apperr"
	"github.com/tunebox/apiserver/types"
)

var (
	// ErrPrincipalNotFound is returned by a PrincipalSource when no
	// account exists for the id in a verified token.
	ErrPrincipalNotFound = errors.New("principal not found")

	// ErrRoleMissing is returned by a RoleResolver when a principal's
	// role reference is dangling or unassigned.
	ErrRoleMissing = errors.New("role missing")
)

// Principal is the account identity attached to a request after the guard
// admits it.
type Principal struct {
	ID     int
	Email  string
	Phone  string
	Active bool

	// RoleID references the principal's role. Zero for principals that
	// carry no role (end-users).
	RoleID int

	// PasswordChangedAt, when set, invalidates tokens issued before it.
	PasswordChangedAt *time.Time

	// Permissions is populated by the guard when role resolution runs.
	Permissions types.PermissionSet
}

// PrincipalSource loads principals for the guard.
type PrincipalSource interface {
	FindPrincipal(ctx context.Context, id int) (Principal, error)
}

// RoleResolver maps a role reference to its permission set.
type RoleResolver interface {
	ResolvePermissions(ctx context.Context, roleID int) (types.PermissionSet, error)
}

// GuardConfig parameterizes the single guard implementation instead of
// forking strict and lenient variants.
type GuardConfig struct {
	// RequireRole makes a dangling or unassigned role a hard rejection.
	RequireRole bool

	// CookieName, when non-empty, names a cookie consulted for the token
	// if the Authorization header is absent.
	CookieName string
}

// Guard authenticates one request's bearer token against the principal
// store. Each call is independent; the guard holds no mutable state.
type Guard struct {
	tokens     *TokenService
	principals PrincipalSource
	roles      RoleResolver
	cfg        GuardConfig
}

// NewGuard constructs a Guard. roles may be nil when cfg.RequireRole is
// false.
func NewGuard(tokens *TokenService, principals PrincipalSource, roles RoleResolver, cfg GuardConfig) *Guard {
	return &Guard{tokens: tokens, principals: principals, roles: roles, cfg: cfg}
}

// Config returns the guard's configuration.
func (g *Guard) Config() GuardConfig {
	return g.cfg
}

// Authenticate runs the per-request check sequence and returns the admitted
// principal, or an application error carrying the rejection status.
func (g *Guard) Authenticate(ctx context.Context, rawToken string) (Principal, error) {
	if rawToken == "" {
		return Principal{}, apperr.Unauthorized("you are not logged in, please log in to get access")
	}

	claims, err := g.tokens.VerifyAccessToken(rawToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return Principal{}, apperr.Unauthorized("your token has expired, please log in again")
		}
		return Principal{}, apperr.Unauthorized("invalid token, please log in again")
	}

	principal, err := g.principals.FindPrincipal(ctx, claims.PrincipalID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return Principal{}, apperr.Unauthorized("the account belonging to this token no longer exists")
		}
		return Principal{}, err
	}

	if g.cfg.RequireRole {
		permissions, err := g.roles.ResolvePermissions(ctx, principal.RoleID)
		if err != nil {
			if errors.Is(err, ErrRoleMissing) {
				return Principal{}, apperr.Unauthorized("your role has been removed, please contact an administrator")
			}
			return Principal{}, err
		}
		principal.Permissions = permissions
	}

	if !principal.Active {
		return Principal{}, apperr.Unauthorized("your account has been deactivated, please contact an administrator")
	}

	if principal.PasswordChangedAt != nil &&
		principal.PasswordChangedAt.Unix() > claims.IssuedAt.Unix() {
		return Principal{}, apperr.Unauthorized("password was changed recently, please log in again")
	}

	return principal, nil
}
