package domain

import "errors"

// Common errors
var (
	// ErrNotFound is returned when an entity is not found in the database
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidTransition is returned when a post status transition is not
	// allowed by the lifecycle table
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrOwnershipMismatch is returned when a batch of post IDs does not
	// fully belong to the requesting account
	ErrOwnershipMismatch = errors.New("one or more posts do not belong to the account")
)

// ValidationError reports a malformed scheduling request or strategy
// configuration. It is always surfaced to the caller, never swallowed.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Msg
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
