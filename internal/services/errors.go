package services

import "errors"

var (
	// ErrNotFound means the referenced notification id does not exist.
	ErrNotFound = errors.New("notification not found")
	// ErrValidation covers missing required fields and enum values outside
	// their allowed set. Raised before any store write.
	ErrValidation = errors.New("validation failed")
	// ErrNotTarget means the caller tried to act on a notification that is
	// not addressed to them.
	ErrNotTarget = errors.New("caller is not a target of this notification")
)
