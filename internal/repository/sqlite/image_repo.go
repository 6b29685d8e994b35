package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/prn-tf/victoria-catalog/internal/domain"
	"github.com/prn-tf/victoria-catalog/internal/repository"
)

// imageRepository implements repository.ImageRepository for SQLite.
type imageRepository struct {
	db *DB
}

// NewImageRepository creates a new SQLite image repository.
func NewImageRepository(db *DB) repository.ImageRepository {
	return &imageRepository{db: db}
}

// Create creates a new image row.
func (r *imageRepository) Create(ctx context.Context, image *domain.Image) error {
	query := `
		INSERT INTO images (product_id, file_name, s3_bucket_path, date_created)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		image.ProductID,
		image.FileName,
		image.S3BucketPath,
		image.DateCreated.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	image.ImageID = id

	return nil
}

// GetByID retrieves an image by ID.
func (r *imageRepository) GetByID(ctx context.Context, id int64) (*domain.Image, error) {
	query := `
		SELECT image_id, product_id, file_name, s3_bucket_path, date_created
		FROM images
		WHERE image_id = ?
	`

	image := &domain.Image{}
	var created string

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&image.ImageID,
		&image.ProductID,
		&image.FileName,
		&image.S3BucketPath,
		&created,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get image by ID: %w", err)
	}

	image.DateCreated, _ = time.Parse(time.RFC3339, created)

	return image, nil
}

// ListByProduct returns all images attached to a product.
func (r *imageRepository) ListByProduct(ctx context.Context, productID int64) ([]*domain.Image, error) {
	query := `
		SELECT image_id, product_id, file_name, s3_bucket_path, date_created
		FROM images
		WHERE product_id = ?
		ORDER BY image_id
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	var images []*domain.Image
	for rows.Next() {
		image := &domain.Image{}
		var created string

		err := rows.Scan(
			&image.ImageID,
			&image.ProductID,
			&image.FileName,
			&image.S3BucketPath,
			&created,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}

		image.DateCreated, _ = time.Parse(time.RFC3339, created)
		images = append(images, image)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}

	return images, nil
}

// Delete deletes an image row by ID.
func (r *imageRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE image_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrImageNotFound
	}

	return nil
}

// DeleteByProduct deletes all image rows for a product.
func (r *imageRepository) DeleteByProduct(ctx context.Context, productID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE product_id = ?`, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete product images: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}

// Ensure imageRepository implements repository.ImageRepository.
var _ repository.ImageRepository = (*imageRepository)(nil)
