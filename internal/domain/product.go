package domain

import (
	"strings"
	"time"
)

// Quantity bounds for a product, inclusive on both ends.
const (
	MinQuantity = 0
	MaxQuantity = 100
)

// Product represents a catalog entry owned by exactly one user.
type Product struct {
	// ID is the unique identifier for the product (auto-generated).
	ID int64 `json:"id"`

	// Name is the product's display name.
	Name string `json:"name"`

	// Description is free-text describing the product.
	Description string `json:"description"`

	// SKU is the stock-keeping code, stored trimmed and upper-cased.
	// It is unique across all products.
	SKU string `json:"sku"`

	// Manufacturer is the product's manufacturer name.
	Manufacturer string `json:"manufacturer"`

	// Quantity is the stock count, constrained to [MinQuantity, MaxQuantity].
	Quantity int `json:"quantity"`

	// OwnerUserID references the owning user. Immutable after creation.
	OwnerUserID int64 `json:"owner_user_id"`

	// DateAdded is the timestamp when the product was created.
	DateAdded time.Time `json:"date_added"`

	// DateLastUpdated is the timestamp when the product was last updated.
	DateLastUpdated time.Time `json:"date_last_updated"`
}

// NewProduct creates a new Product with timestamps set.
// The SKU is expected to be normalized already.
func NewProduct(name, description, sku, manufacturer string, quantity int, ownerUserID int64) *Product {
	now := time.Now().UTC()
	return &Product{
		Name:            name,
		Description:     description,
		SKU:             sku,
		Manufacturer:    manufacturer,
		Quantity:        quantity,
		OwnerUserID:     ownerUserID,
		DateAdded:       now,
		DateLastUpdated: now,
	}
}

// IsOwnedBy reports whether the product belongs to the given user.
func (p *Product) IsOwnedBy(userID int64) bool {
	return p.OwnerUserID == userID
}

// NormalizeSKU trims surrounding whitespace and upper-cases a raw SKU.
// An empty result means the SKU is invalid.
func NormalizeSKU(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidQuantity reports whether q is inside the allowed stock range.
func ValidQuantity(q int) bool {
	return q >= MinQuantity && q <= MaxQuantity
}

// ProductPatch describes a partial update to a product. Nil fields are
// left untouched. SKU, when set, must already be normalized.
type ProductPatch struct {
	Name         *string
	Description  *string
	SKU          *string
	Manufacturer *string
	Quantity     *int
}

// IsEmpty reports whether the patch changes nothing.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.SKU == nil &&
		p.Manufacturer == nil && p.Quantity == nil
}

// Apply copies the patch's set fields onto the product and bumps the
// update timestamp.
func (p ProductPatch) Apply(prod *Product) {
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.Description != nil {
		prod.Description = *p.Description
	}
	if p.SKU != nil {
		prod.SKU = *p.SKU
	}
	if p.Manufacturer != nil {
		prod.Manufacturer = *p.Manufacturer
	}
	if p.Quantity != nil {
		prod.Quantity = *p.Quantity
	}
	prod.DateLastUpdated = time.Now().UTC()
}
