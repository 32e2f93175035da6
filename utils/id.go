package utils

import "github.com/google/uuid"

// NewID generates an opaque identifier for users and notes.
func NewID() string {
	return uuid.NewString()
}
