package repository

import "errors"

var (
	// ErrNotFound is returned when a document is absent or not owned by the
	// caller. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique index rejects a write.
	ErrConflict = errors.New("already exists")
)
