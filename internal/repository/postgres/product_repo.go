package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/victoria-catalog/internal/domain"
	"github.com/prn-tf/victoria-catalog/internal/repository"
)

// productRepository implements repository.ProductRepository.
type productRepository struct {
	db *DB
}

// NewProductRepository creates a new PostgreSQL product repository.
func NewProductRepository(db *DB) repository.ProductRepository {
	return &productRepository{db: db}
}

// Create creates a new product.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, description, sku, manufacturer, quantity, owner_user_id, date_added, date_last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		product.Name,
		product.Description,
		product.SKU,
		product.Manufacturer,
		product.Quantity,
		product.OwnerUserID,
		product.DateAdded,
		product.DateLastUpdated,
	).Scan(&product.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSKUConflict
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by ID.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, description, sku, manufacturer, quantity, owner_user_id, date_added, date_last_updated
		FROM products
		WHERE id = $1
	`

	product := &domain.Product{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.SKU,
		&product.Manufacturer,
		&product.Quantity,
		&product.OwnerUserID,
		&product.DateAdded,
		&product.DateLastUpdated,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID: %w", err)
	}

	return product, nil
}

// Update persists the full state of an existing product.
// The owner column is never written; ownership is immutable.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, sku = $4, manufacturer = $5, quantity = $6, date_last_updated = $7
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.SKU,
		product.Manufacturer,
		product.Quantity,
		product.DateLastUpdated,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSKUConflict
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// Delete deletes a product by ID.
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// SKUExists checks whether any product other than excludeID carries the given SKU.
func (r *productRepository) SKUExists(ctx context.Context, sku string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE sku = $1 AND id != $2)`,
		sku, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check SKU existence: %w", err)
	}
	return exists, nil
}

// Ensure productRepository implements repository.ProductRepository.
var _ repository.ProductRepository = (*productRepository)(nil)
