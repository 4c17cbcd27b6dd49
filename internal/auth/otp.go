package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPTTL is the validity window of one-time codes.
const OTPTTL = 15 * time.Minute

var otpMax = big.NewInt(1000000)

// GenerateOTP returns a uniformly random, zero-padded 6-digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
