// Package auth provides HTTP Basic authentication for the Victoria catalog.
// Credentials are verified against stored bcrypt hashes on every request;
// no sessions or tokens are issued.
package auth

import (
	"context"
	"errors"
)

// ErrMissingAuthorization indicates the request carried no usable
// Authorization header.
var ErrMissingAuthorization = errors.New("authorization header is required")

// Principal identifies the authenticated user attached to a request.
type Principal struct {
	// UserID is the authenticated user's ID.
	UserID int64

	// Username is the authenticated user's login identifier.
	Username string
}

// principalContextKey is the context key for Principal.
type principalContextKey struct{}

// PrincipalContextKey is the key used to store Principal in request context.
var PrincipalContextKey = principalContextKey{}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, p)
}

// GetPrincipal retrieves the Principal from a request context.
// Returns nil if the request was not authenticated.
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(PrincipalContextKey).(*Principal); ok {
		return p
	}
	return nil
}

// RequirePrincipal retrieves the Principal or fails.
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	p := GetPrincipal(ctx)
	if p == nil {
		return nil, ErrMissingAuthorization
	}
	return p, nil
}
