package handler

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prn-tf/victoria-catalog/internal/domain"
)

func decodeProductBody(t *testing.T, body string) (productRequest, error) {
	t.Helper()
	r := httptest.NewRequest("POST", "/v2/product", strings.NewReader(body))
	var req productRequest
	err := decodeJSON(r, &req)
	return req, err
}

func TestDecodeJSON_Product(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name: "valid body",
			body: `{"name":"Widget","description":"A widget","sku":"WID-1","manufacturer":"Acme","quantity":10}`,
		},
		{
			name:    "unknown field rejected",
			body:    `{"name":"Widget","color":"red"}`,
			wantErr: domain.ErrUnknownField,
		},
		{
			name:    "wrong type for name",
			body:    `{"name":123}`,
			wantErr: domain.ErrInvalidFieldType,
		},
		{
			name:    "wrong type for quantity",
			body:    `{"quantity":"ten"}`,
			wantErr: domain.ErrInvalidFieldType,
		},
		{
			name:    "empty body",
			body:    ``,
			wantErr: domain.ErrMissingField,
		},
		{
			name:    "trailing garbage",
			body:    `{"name":"Widget"}{"name":"Again"}`,
			wantErr: domain.ErrInvalidFieldType,
		},
		{
			name:    "malformed json",
			body:    `{"name":`,
			wantErr: domain.ErrInvalidFieldType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeProductBody(t, tt.body)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestProductRequest_FullFields(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		wantQty int
	}{
		{
			name:    "all fields present",
			body:    `{"name":"Widget","description":"A widget","sku":"WID-1","manufacturer":"Acme","quantity":10}`,
			wantQty: 10,
		},
		{
			name:    "missing quantity",
			body:    `{"name":"Widget","description":"A widget","sku":"WID-1","manufacturer":"Acme"}`,
			wantErr: domain.ErrMissingField,
		},
		{
			name:    "fractional quantity rejected",
			body:    `{"name":"Widget","description":"A widget","sku":"WID-1","manufacturer":"Acme","quantity":3.5}`,
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "boundary quantity zero",
			body:    `{"name":"Widget","description":"A widget","sku":"WID-1","manufacturer":"Acme","quantity":0}`,
			wantQty: 0,
		},
		{
			name:    "boundary quantity hundred",
			body:    `{"name":"Widget","description":"A widget","sku":"WID-1","manufacturer":"Acme","quantity":100}`,
			wantQty: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := decodeProductBody(t, tt.body)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}

			fields, err := req.fullFields()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fields.Quantity != tt.wantQty {
				t.Errorf("expected quantity %d, got %d", tt.wantQty, fields.Quantity)
			}
		})
	}
}

func TestProductRequest_Patch(t *testing.T) {
	req, err := decodeProductBody(t, `{"quantity":5}`)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	patch, err := req.patch()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patch.Quantity == nil || *patch.Quantity != 5 {
		t.Errorf("expected quantity pointer to 5, got %v", patch.Quantity)
	}
	if patch.Name != nil || patch.SKU != nil {
		t.Error("absent fields must stay nil")
	}

	req, err = decodeProductBody(t, `{"quantity":2.5}`)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, err := req.patch(); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity for fractional patch, got %v", err)
	}
}
