// Package domain contains the core business entities for Victoria Catalog.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the catalog system.
package domain

import (
	"time"
)

// User represents a registered user account.
// Users own products and authenticate with HTTP Basic credentials on
// every request; no session tokens are issued.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id"`

	// Username is the unique login identifier. It must be a syntactically
	// valid email address and is compared case-sensitively.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This is never exposed in API responses.
	PasswordHash string `json:"-"`

	// FirstName is the user's first name.
	FirstName string `json:"first_name"`

	// LastName is the user's last name.
	LastName string `json:"last_name"`

	// AccountCreated is the timestamp when the account was created.
	AccountCreated time.Time `json:"account_created"`

	// AccountUpdated is the timestamp when the account was last updated.
	AccountUpdated time.Time `json:"account_updated"`
}

// NewUser creates a new User with creation timestamps set.
func NewUser(username, passwordHash, firstName, lastName string) *User {
	now := time.Now().UTC()
	return &User{
		Username:       username,
		PasswordHash:   passwordHash,
		FirstName:      firstName,
		LastName:       lastName,
		AccountCreated: now,
		AccountUpdated: now,
	}
}
