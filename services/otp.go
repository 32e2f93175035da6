package services

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

// GenerateOTP returns a numeric one-time code of the given length, drawn from
// a cryptographically strong random source.
func GenerateOTP(length int) (string, error) {
	if length < 6 || length > 8 {
		return "", fmt.Errorf("otp length %d outside supported range", length)
	}

	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate otp: %w", err)
		}
		code[i] = byte(n.Int64()) + '0'
	}

	return string(code), nil
}

// CompareOTP compares a submitted code against the stored one in constant time.
func CompareOTP(stored, provided string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) == 1
}
