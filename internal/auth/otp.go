package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

const otpLength = 6

var otpMax = big.NewInt(1000000)

// GenerateOTP returns a 6-digit numeric one-time code. The code is the sole
// secret delivered out-of-band, so it is drawn from crypto/rand. Leading
// zeros are kept.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", fmt.Errorf("generate OTP: %w", err)
	}
	return fmt.Sprintf("%0*d", otpLength, n), nil
}

// otpEqual compares two codes in constant time.
func otpEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
