package domain

import "errors"

var (
	// ErrValidation marks malformed input fields.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a uniqueness violation or a stale concurrent write.
	ErrConflict = errors.New("conflict")

	// ErrNotFound is returned when no matching account exists or the
	// account is in the wrong lifecycle state for the request.
	ErrNotFound = errors.New("not found")

	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials deliberately does not say whether the login or
	// the credential was wrong.
	ErrInvalidCredentials = errors.New("invalid login or password")
)
