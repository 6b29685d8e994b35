// Package repository defines data access interfaces for Victoria Catalog.
// These interfaces abstract database operations, allowing for different
// implementations (PostgreSQL, SQLite, in-memory for testing) while keeping
// the service layer clean.
package repository

import (
	"context"

	"github.com/prn-tf/victoria-catalog/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *domain.User) error

	// ExistsByUsername checks if a user with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// =============================================================================
// Product Repository
// =============================================================================

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// Create creates a new product.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by ID.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// Update persists the full state of an existing product.
	Update(ctx context.Context, product *domain.Product) error

	// Delete deletes a product by ID.
	Delete(ctx context.Context, id int64) error

	// SKUExists checks whether any product other than excludeID carries the
	// given (already normalized) SKU. Pass excludeID 0 on create paths.
	SKUExists(ctx context.Context, sku string, excludeID int64) (bool, error)
}

// =============================================================================
// Image Repository
// =============================================================================

// ImageRepository defines the interface for product image metadata access.
// The image bytes themselves live in the object store; rows here only
// reference them by storage key.
type ImageRepository interface {
	// Create creates a new image row.
	Create(ctx context.Context, image *domain.Image) error

	// GetByID retrieves an image by ID.
	GetByID(ctx context.Context, id int64) (*domain.Image, error)

	// ListByProduct returns all images attached to a product.
	ListByProduct(ctx context.Context, productID int64) ([]*domain.Image, error)

	// Delete deletes an image row by ID.
	Delete(ctx context.Context, id int64) error

	// DeleteByProduct deletes all image rows for a product and returns the
	// number of rows removed.
	DeleteByProduct(ctx context.Context, productID int64) (int64, error)
}

// =============================================================================
// Aggregate / Health
// =============================================================================

// Repositories holds all repository instances.
type Repositories struct {
	User    UserRepository
	Product ProductRepository
	Image   ImageRepository
}

// DatabaseHealth is an interface for database health checks.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Close() error
}
