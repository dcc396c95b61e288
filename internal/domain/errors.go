package domain

import "errors"

var (
	// ErrNotFound marks lookups for records that do not exist. A delivery
	// job referencing a missing notification is a producer bug and is
	// never retried.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks malformed input.
	ErrValidation = errors.New("validation error")

	// ErrConflict marks state transitions that lost to a concurrent update.
	ErrConflict = errors.New("conflict")
)
