package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords with bcrypt at a
// configurable cost. The cost is injected at construction; core logic
// never reads it from ambient state.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher constructs a hasher. A cost outside bcrypt's valid
// range falls back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt digest of plaintext.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Digests imported from
// the legacy PHP-style "$2y$" tag verify the same as "$2b$" ones; the two
// tags are cryptographically identical.
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	digest = normalizeDigest(digest)
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

func normalizeDigest(digest string) string {
	if strings.HasPrefix(digest, "$2y$") {
		return "$2b$" + digest[len("$2y$"):]
	}
	return digest
}
