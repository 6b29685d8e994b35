// Package service provides business logic services for the Victoria catalog.
package service

import "errors"

// Common service errors.
var (
	// ErrInternalError wraps unexpected repository or storage failures.
	ErrInternalError = errors.New("internal server error")

	// ErrInvalidPassword is returned when a password fails validation.
	ErrInvalidPassword = errors.New("invalid password: must not be empty")

	// ErrInvalidEmail is returned when a username is not a valid email address.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrMissingName is returned when a required name field is empty.
	ErrMissingName = errors.New("first name and last name are required")
)
