package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/prn-tf/victoria-catalog/internal/domain"
)

// decodeJSON decodes a request body into dst, rejecting unknown keys and
// translating decoder failures into domain errors. Numbers are decoded as
// json.Number so integer checks stay exact.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	dec.UseNumber()

	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr):
			return domain.NewDomainError(domain.ErrInvalidFieldType, "wrong type for field", typeErr.Field)
		case strings.Contains(err.Error(), "unknown field"):
			return domain.NewDomainError(domain.ErrUnknownField, err.Error(), "")
		case errors.Is(err, io.EOF):
			return domain.NewDomainError(domain.ErrMissingField, "request body is empty", "")
		default:
			return domain.NewDomainError(domain.ErrInvalidFieldType, err.Error(), "")
		}
	}

	// A second value in the body is malformed input.
	if dec.More() {
		return domain.NewDomainError(domain.ErrInvalidFieldType, "unexpected data after JSON body", "")
	}

	return nil
}

// intFromNumber converts a decoded JSON number to a plain int, rejecting
// fractional values such as 3.5.
func intFromNumber(n json.Number) (int, error) {
	v, err := n.Int64()
	if err != nil {
		return 0, domain.NewDomainError(domain.ErrInvalidQuantity, "quantity must be an integer", n.String())
	}
	return int(v), nil
}
