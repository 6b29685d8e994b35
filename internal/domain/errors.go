// Package domain contains the core business entities for Victoria Catalog.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// Authentication / Authorization Errors
	// ===========================================

	// ErrInvalidCredentialFormat indicates the supplied credentials are
	// malformed (non-email identifier or empty secret).
	ErrInvalidCredentialFormat = errors.New("credential format is invalid")

	// ErrAuthenticationFailed indicates the username/password pair did not
	// match a stored account.
	ErrAuthenticationFailed = errors.New("username or password is incorrect")

	// ErrForbidden indicates the authenticated user does not own the
	// resource being acted on.
	ErrForbidden = errors.New("access to this resource is forbidden")

	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates a user with the same username exists.
	ErrUsernameTaken = errors.New("username already exists")

	// ===========================================
	// Product Errors
	// ===========================================

	// ErrProductNotFound indicates the requested product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrSKUConflict indicates another product already uses the SKU.
	ErrSKUConflict = errors.New("sku is already taken")

	// ErrInvalidSKU indicates the SKU is empty after normalization.
	ErrInvalidSKU = errors.New("sku is not valid")

	// ErrInvalidQuantity indicates the quantity is not an integer in [0,100].
	ErrInvalidQuantity = errors.New("quantity must be an integer between 0 and 100")

	// ErrInvalidFieldType indicates a field held the wrong JSON type.
	ErrInvalidFieldType = errors.New("field has an invalid type")

	// ErrUnknownField indicates the request body carried an unrecognized key.
	ErrUnknownField = errors.New("request body contains an unknown field")

	// ErrMissingField indicates a required field was absent.
	ErrMissingField = errors.New("request body is missing a required field")

	// ErrEmptyUpdate indicates a partial update carried no fields.
	ErrEmptyUpdate = errors.New("update body must contain at least one field")

	// ===========================================
	// Image Errors
	// ===========================================

	// ErrImageNotFound indicates the image does not exist for the stated
	// product. An image attached to a different product is reported the
	// same way so existence is not disclosed across owners.
	ErrImageNotFound = errors.New("image not found")

	// ErrNoImageProvided indicates the upload carried no file.
	ErrNoImageProvided = errors.New("no image file provided")

	// ErrTooManyImages indicates the upload carried more than one file.
	ErrTooManyImages = errors.New("only one image can be uploaded per request")

	// ErrUnsupportedMediaType indicates the file is not JPEG or PNG.
	ErrUnsupportedMediaType = errors.New("only JPG, JPEG and PNG files are allowed")

	// ===========================================
	// Storage Errors
	// ===========================================

	// ErrStorageWriteFailed indicates the object store rejected a write.
	ErrStorageWriteFailed = errors.New("failed to write object to storage")

	// ErrStorageDeleteFailed indicates the object store rejected a delete.
	// Deletions are best-effort; callers log this and continue.
	ErrStorageDeleteFailed = errors.New("failed to delete object from storage")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., sku, storage key).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

// WrapError wraps an error with domain context if it's not already a DomainError.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	return &DomainError{
		Err:     err,
		Message: message,
	}
}
