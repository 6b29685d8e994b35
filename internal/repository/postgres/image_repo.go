package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/victoria-catalog/internal/domain"
	"github.com/prn-tf/victoria-catalog/internal/repository"
)

// imageRepository implements repository.ImageRepository.
type imageRepository struct {
	db *DB
}

// NewImageRepository creates a new PostgreSQL image repository.
func NewImageRepository(db *DB) repository.ImageRepository {
	return &imageRepository{db: db}
}

// Create creates a new image row.
func (r *imageRepository) Create(ctx context.Context, image *domain.Image) error {
	query := `
		INSERT INTO images (product_id, file_name, s3_bucket_path, date_created)
		VALUES ($1, $2, $3, $4)
		RETURNING image_id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		image.ProductID,
		image.FileName,
		image.S3BucketPath,
		image.DateCreated,
	).Scan(&image.ImageID)

	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}

	return nil
}

// GetByID retrieves an image by ID.
func (r *imageRepository) GetByID(ctx context.Context, id int64) (*domain.Image, error) {
	query := `
		SELECT image_id, product_id, file_name, s3_bucket_path, date_created
		FROM images
		WHERE image_id = $1
	`

	image := &domain.Image{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&image.ImageID,
		&image.ProductID,
		&image.FileName,
		&image.S3BucketPath,
		&image.DateCreated,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get image by ID: %w", err)
	}

	return image, nil
}

// ListByProduct returns all images attached to a product.
func (r *imageRepository) ListByProduct(ctx context.Context, productID int64) ([]*domain.Image, error) {
	query := `
		SELECT image_id, product_id, file_name, s3_bucket_path, date_created
		FROM images
		WHERE product_id = $1
		ORDER BY image_id
	`

	rows, err := r.db.Pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	var images []*domain.Image
	for rows.Next() {
		image := &domain.Image{}
		err := rows.Scan(
			&image.ImageID,
			&image.ProductID,
			&image.FileName,
			&image.S3BucketPath,
			&image.DateCreated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, image)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}

	return images, nil
}

// Delete deletes an image row by ID.
func (r *imageRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM images WHERE image_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrImageNotFound
	}

	return nil
}

// DeleteByProduct deletes all image rows for a product.
func (r *imageRepository) DeleteByProduct(ctx context.Context, productID int64) (int64, error) {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM images WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete product images: %w", err)
	}

	return result.RowsAffected(), nil
}

// Ensure imageRepository implements repository.ImageRepository.
var _ repository.ImageRepository = (*imageRepository)(nil)
