package auth

import (
	"net/http"
	"net/mail"

	"github.com/prn-tf/victoria-catalog/internal/domain"
)

// Credentials is a username/password pair extracted from a request.
type Credentials struct {
	Username string
	Password string
}

// ParseBasicCredentials extracts Basic credentials from the request.
// A missing or non-Basic Authorization header yields
// ErrMissingAuthorization; a header that decodes but fails the format
// rules (non-email username or empty password) yields
// domain.ErrInvalidCredentialFormat.
func ParseBasicCredentials(r *http.Request) (Credentials, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return Credentials{}, ErrMissingAuthorization
	}

	creds := Credentials{Username: username, Password: password}
	if err := creds.ValidateFormat(); err != nil {
		return Credentials{}, err
	}

	return creds, nil
}

// ValidateFormat checks the structural rules a credential pair must meet
// before any database lookup happens.
func (c Credentials) ValidateFormat() error {
	if _, err := mail.ParseAddress(c.Username); err != nil {
		return domain.NewDomainError(domain.ErrInvalidCredentialFormat, "username must be an email address", c.Username)
	}
	if c.Password == "" {
		return domain.NewDomainError(domain.ErrInvalidCredentialFormat, "password must not be empty", "")
	}
	return nil
}
