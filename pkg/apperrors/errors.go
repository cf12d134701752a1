// Package apperrors defines sentinel errors shared across layers.
package apperrors

import "errors"

var (
	// ErrNotFound signals that a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoActiveTab signals that a user has persisted tabs but none is
	// marked active.
	ErrNoActiveTab = errors.New("no active tab state")
)
