package apperrors

import "errors"

// Standard application errors
var (
	// ErrProviderUnavailable is returned when the exchange provider
	// cannot be reached or answers with a non-2xx status.
	ErrProviderUnavailable = errors.New("exchange provider unavailable")

	// ErrInvalidInput is returned when user-supplied input is invalid.
	ErrInvalidInput = errors.New("invalid input provided")

	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("resource not found")
)
