package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired is returned when a token's expiry has elapsed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenMalformed is returned when a token's signature or
	// structure is invalid.
	ErrTokenMalformed = errors.New("token malformed")
)

const (
	// DefaultAccessTokenTTL is the access-token lifetime used when the
	// configuration does not override it.
	DefaultAccessTokenTTL = 24 * time.Hour

	// ResetTokenTTL is the fixed validity window of password-reset tokens.
	ResetTokenTTL = 10 * time.Minute

	resetTokenBytes = 32
)

// AccessClaims is the verified payload of an access token.
type AccessClaims struct {
	// PrincipalID is the account the token was issued to.
	PrincipalID int

	// IssuedAt is the token's issue instant, second precision.
	IssuedAt time.Time
}

// TokenService issues and verifies signed bearer tokens and single-use
// password-reset tokens. The signing key and TTL are injected once at
// construction.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	clock  Clock
}

// NewTokenService constructs a TokenService. A nil clock defaults to the
// system clock; a non-positive ttl defaults to DefaultAccessTokenTTL.
func NewTokenService(secret []byte, ttl time.Duration, clock Clock) *TokenService {
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &TokenService{secret: secret, ttl: ttl, clock: clock}
}

// TTL returns the configured access-token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// IssueAccessToken signs an HS256 token for the given principal with the
// configured expiry.
func (s *TokenService) IssueAccessToken(principalID int) (string, error) {
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(principalID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyAccessToken validates signature and expiry and returns the claims.
// Fails with ErrTokenExpired past expiry and ErrTokenMalformed otherwise.
func (s *TokenService) VerifyAccessToken(tokenString string) (AccessClaims, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenMalformed
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return AccessClaims{}, ErrTokenExpired
		}
		return AccessClaims{}, ErrTokenMalformed
	}
	if !token.Valid {
		return AccessClaims{}, ErrTokenMalformed
	}

	principalID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || principalID < 1 {
		return AccessClaims{}, ErrTokenMalformed
	}
	if claims.IssuedAt == nil {
		return AccessClaims{}, ErrTokenMalformed
	}

	return AccessClaims{
		PrincipalID: principalID,
		IssuedAt:    claims.IssuedAt.Time,
	}, nil
}

// IssueResetToken mints a single-use password-reset token. The raw token
// goes to the caller; only its SHA-256 digest is meant to be persisted.
func (s *TokenService) IssueResetToken() (raw string, storedHash string, expiry time.Time, err error) {
	buf := make([]byte, resetTokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", time.Time{}, err
	}
	raw = hex.EncodeToString(buf)
	storedHash = HashResetToken(raw)
	expiry = s.clock.Now().Add(ResetTokenTTL)
	return raw, storedHash, expiry, nil
}

// VerifyResetToken recomputes the digest of raw, compares it to storedHash
// in constant time, and checks expiry.
func (s *TokenService) VerifyResetToken(raw, storedHash string, expiry time.Time) bool {
	digest := HashResetToken(raw)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(storedHash)) != 1 {
		return false
	}
	return s.clock.Now().Before(expiry)
}

// HashResetToken returns the hex SHA-256 digest of a raw reset token.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
