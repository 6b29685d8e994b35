package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/prn-tf/victoria-catalog/internal/domain"
)

// CredentialVerifier verifies a username/password pair against stored
// accounts. Implemented by service.UserService.
type CredentialVerifier interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
}

// Middleware creates an authentication middleware. Every request through
// it must carry valid Basic credentials; on success the principal is
// attached to the request context.
//
// Credential checks run before any body parsing or resource lookup, so a
// request that would also fail validation still reports the auth failure.
func Middleware(verifier CredentialVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds, err := ParseBasicCredentials(r)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidCredentialFormat) {
					writeAuthError(w, http.StatusBadRequest, err)
					return
				}
				writeChallenge(w)
				return
			}

			user, err := verifier.Authenticate(r.Context(), creds.Username, creds.Password)
			if err != nil {
				log.Debug().Str("username", creds.Username).Str("path", r.URL.Path).Msg("authentication failed")
				writeChallenge(w)
				return
			}

			principal := &Principal{
				UserID:   user.ID,
				Username: user.Username,
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// writeChallenge writes a 401 with a Basic challenge.
func writeChallenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="victoria"`)
	writeAuthError(w, http.StatusUnauthorized, domain.ErrAuthenticationFailed)
}

// writeAuthError writes a JSON error response.
func writeAuthError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
