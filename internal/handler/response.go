// Package handler provides HTTP handlers for the Victoria catalog API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/prn-tf/victoria-catalog/internal/auth"
	"github.com/prn-tf/victoria-catalog/internal/domain"
	"github.com/prn-tf/victoria-catalog/internal/service"
)

// errorResponse is the JSON envelope for all error replies.
type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes a JSON body with the given status.
func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Error().Err(err).Msg("failed to encode response")
		}
	}
}

// respondNoContent writes an empty 204 reply.
func respondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// respondError maps an error to its HTTP status and writes the envelope.
func respondError(w http.ResponseWriter, err error) {
	status := statusForError(err)

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		// Don't leak internals
		respondJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}

	respondJSON(w, status, errorResponse{Error: err.Error()})
}

// statusForError maps domain and service errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentialFormat),
		errors.Is(err, domain.ErrUsernameTaken),
		errors.Is(err, domain.ErrSKUConflict),
		errors.Is(err, domain.ErrInvalidSKU),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidFieldType),
		errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrEmptyUpdate),
		errors.Is(err, domain.ErrNoImageProvided),
		errors.Is(err, domain.ErrTooManyImages),
		errors.Is(err, domain.ErrUnsupportedMediaType),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidPassword),
		errors.Is(err, service.ErrMissingName):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrAuthenticationFailed),
		errors.Is(err, auth.ErrMissingAuthorization):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrImageNotFound):
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
