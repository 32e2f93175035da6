package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt cost factor used for all stored password hashes.
const bcryptCost = 10

// HashPassword derives a salted one-way hash from a plaintext password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", errors.New("failed to hash password")
	}

	return string(hash), nil
}

// VerifyPassword reports whether the provided password matches the stored hash.
func VerifyPassword(storedHash, providedPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(providedPassword)) == nil
}
