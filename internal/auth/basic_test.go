package auth

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/prn-tf/victoria-catalog/internal/domain"
)

func TestParseBasicCredentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		noAuth   bool
		wantErr  error
	}{
		{
			name:     "valid credentials",
			username: "jane@example.com",
			password: "s3cret",
		},
		{
			name:    "missing header",
			noAuth:  true,
			wantErr: ErrMissingAuthorization,
		},
		{
			name:     "non-email username",
			username: "jane",
			password: "s3cret",
			wantErr:  domain.ErrInvalidCredentialFormat,
		},
		{
			name:     "empty password",
			username: "jane@example.com",
			password: "",
			wantErr:  domain.ErrInvalidCredentialFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/v2/product", nil)
			if !tt.noAuth {
				r.SetBasicAuth(tt.username, tt.password)
			}

			creds, err := ParseBasicCredentials(r)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if creds.Username != tt.username || creds.Password != tt.password {
				t.Errorf("credentials mangled: %+v", creds)
			}
		})
	}
}
