package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/prn-tf/victoria-catalog/internal/domain"
	"github.com/prn-tf/victoria-catalog/internal/repository"
)

// productRepository implements repository.ProductRepository for SQLite.
type productRepository struct {
	db *DB
}

// NewProductRepository creates a new SQLite product repository.
func NewProductRepository(db *DB) repository.ProductRepository {
	return &productRepository{db: db}
}

// Create creates a new product.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, description, sku, manufacturer, quantity, owner_user_id, date_added, date_last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		product.Name,
		product.Description,
		product.SKU,
		product.Manufacturer,
		product.Quantity,
		product.OwnerUserID,
		product.DateAdded.Format(time.RFC3339),
		product.DateLastUpdated.Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sku '%s'", domain.ErrSKUConflict, product.SKU)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	product.ID = id

	return nil
}

// GetByID retrieves a product by ID.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, description, sku, manufacturer, quantity, owner_user_id, date_added, date_last_updated
		FROM products
		WHERE id = ?
	`

	product := &domain.Product{}
	var added, updated string

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.SKU,
		&product.Manufacturer,
		&product.Quantity,
		&product.OwnerUserID,
		&added,
		&updated,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID: %w", err)
	}

	product.DateAdded, _ = time.Parse(time.RFC3339, added)
	product.DateLastUpdated, _ = time.Parse(time.RFC3339, updated)

	return product, nil
}

// Update persists the full state of an existing product.
// The owner column is deliberately excluded; ownership is immutable.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = ?, description = ?, sku = ?, manufacturer = ?, quantity = ?, date_last_updated = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		product.Name,
		product.Description,
		product.SKU,
		product.Manufacturer,
		product.Quantity,
		product.DateLastUpdated.Format(time.RFC3339),
		product.ID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sku '%s'", domain.ErrSKUConflict, product.SKU)
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// Delete deletes a product by ID.
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// SKUExists checks whether any product other than excludeID carries the SKU.
func (r *productRepository) SKUExists(ctx context.Context, sku string, excludeID int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE sku = ? AND id != ?`,
		sku, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check sku existence: %w", err)
	}
	return count > 0, nil
}

// Ensure productRepository implements repository.ProductRepository.
var _ repository.ProductRepository = (*productRepository)(nil)
