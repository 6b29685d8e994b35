package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/victoria-catalog/internal/domain"
	"github.com/prn-tf/victoria-catalog/internal/pkg/crypto"
	"github.com/prn-tf/victoria-catalog/internal/repository"
	"github.com/prn-tf/victoria-catalog/internal/storage"
)

// ImageService handles product image attachments. The bytes go to the
// object store; a metadata row records the attachment. All operations
// require the requester to own the parent product.
type ImageService struct {
	imageRepo   repository.ImageRepository
	productRepo repository.ProductRepository
	store       storage.ObjectStore
	logger      zerolog.Logger
}

// NewImageService creates a new ImageService.
func NewImageService(
	imageRepo repository.ImageRepository,
	productRepo repository.ProductRepository,
	store storage.ObjectStore,
	logger zerolog.Logger,
) *ImageService {
	return &ImageService{
		imageRepo:   imageRepo,
		productRepo: productRepo,
		store:       store,
		logger:      logger.With().Str("service", "image").Logger(),
	}
}

// =============================================================================
// Input/Output Structs
// =============================================================================

// UploadImageInput contains the data needed to attach an image.
type UploadImageInput struct {
	ProductID   int64
	RequesterID int64
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadImageOutput contains the result of an upload.
type UploadImageOutput struct {
	Image *domain.Image
}

// GetImageInput identifies one image under a product.
type GetImageInput struct {
	ProductID   int64
	ImageID     int64
	RequesterID int64
}

// ListImagesInput identifies a product whose images are listed.
type ListImagesInput struct {
	ProductID   int64
	RequesterID int64
}

// DeleteImageInput identifies one image under a product.
type DeleteImageInput struct {
	ProductID   int64
	ImageID     int64
	RequesterID int64
}

// =============================================================================
// Service Methods
// =============================================================================

// AuthorizeOwner verifies that the parent product exists and is owned by
// the requester. Handlers call this before parsing the multipart body so
// missing or foreign products are reported ahead of any body error.
func (s *ImageService) AuthorizeOwner(ctx context.Context, productID, requesterID int64) error {
	_, err := s.getOwnedProduct(ctx, productID, requesterID)
	return err
}

// Upload stores the image bytes and records the attachment. The object
// write happens first; if it fails no row is created. Keys are minted
// fresh per upload so deleted keys are never reused.
func (s *ImageService) Upload(ctx context.Context, input UploadImageInput) (*UploadImageOutput, error) {
	if _, err := s.getOwnedProduct(ctx, input.ProductID, input.RequesterID); err != nil {
		return nil, err
	}

	if !domain.AllowedImageTypes[input.ContentType] {
		return nil, domain.NewDomainError(domain.ErrUnsupportedMediaType, "unsupported content type", input.ContentType)
	}

	key := uuid.NewString() + "/" + input.FileName

	body := crypto.NewDigestReader(input.Body)
	if err := s.store.Put(ctx, key, body, input.Size, input.ContentType); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to store image object")
		return nil, domain.NewDomainError(domain.ErrStorageWriteFailed, err.Error(), key)
	}

	image := domain.NewImage(input.ProductID, input.FileName, key)

	if err := s.imageRepo.Create(ctx, image); err != nil {
		// The object is orphaned if this cleanup fails; log and move on.
		if delErr := s.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Warn().
				Err(fmt.Errorf("%w: %v", domain.ErrStorageDeleteFailed, delErr)).
				Str("key", key).
				Msg("failed to clean up orphaned object")
		}
		s.logger.Error().Err(err).Int64("product_id", input.ProductID).Msg("failed to create image row")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("image_id", image.ImageID).
		Int64("product_id", image.ProductID).
		Str("file_name", image.FileName).
		Str("sha256", body.SHA256()).
		Int64("bytes", body.Size()).
		Msg("image uploaded")

	return &UploadImageOutput{Image: image}, nil
}

// Get retrieves one image attached to an owned product. An image that
// exists under a different product is reported as not found.
func (s *ImageService) Get(ctx context.Context, input GetImageInput) (*domain.Image, error) {
	if _, err := s.getOwnedProduct(ctx, input.ProductID, input.RequesterID); err != nil {
		return nil, err
	}

	image, err := s.imageRepo.GetByID(ctx, input.ImageID)
	if err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			return nil, domain.ErrImageNotFound
		}
		s.logger.Error().Err(err).Int64("image_id", input.ImageID).Msg("failed to get image")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !image.BelongsTo(input.ProductID) {
		return nil, domain.ErrImageNotFound
	}

	return image, nil
}

// List returns all images attached to an owned product.
func (s *ImageService) List(ctx context.Context, input ListImagesInput) ([]*domain.Image, error) {
	if _, err := s.getOwnedProduct(ctx, input.ProductID, input.RequesterID); err != nil {
		return nil, err
	}

	images, err := s.imageRepo.ListByProduct(ctx, input.ProductID)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", input.ProductID).Msg("failed to list images")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return images, nil
}

// Delete removes one image. The metadata row goes first, then the object
// bytes best-effort; a failed object delete is logged, not surfaced.
func (s *ImageService) Delete(ctx context.Context, input DeleteImageInput) error {
	image, err := s.Get(ctx, GetImageInput{
		ProductID:   input.ProductID,
		ImageID:     input.ImageID,
		RequesterID: input.RequesterID,
	})
	if err != nil {
		return err
	}

	if err := s.imageRepo.Delete(ctx, image.ImageID); err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			return domain.ErrImageNotFound
		}
		s.logger.Error().Err(err).Int64("image_id", image.ImageID).Msg("failed to delete image row")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.store.Delete(ctx, image.S3BucketPath); err != nil {
		s.logger.Warn().
			Err(fmt.Errorf("%w: %v", domain.ErrStorageDeleteFailed, err)).
			Int64("image_id", image.ImageID).
			Str("key", image.S3BucketPath).
			Msg("failed to delete image object, row already removed")
	}

	s.logger.Info().
		Int64("image_id", image.ImageID).
		Int64("product_id", image.ProductID).
		Msg("image deleted")

	return nil
}

// getOwnedProduct fetches the parent product and verifies ownership.
// Existence is checked before ownership.
func (s *ImageService) getOwnedProduct(ctx context.Context, productID, requesterID int64) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, domain.ErrProductNotFound
		}
		s.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to get product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !product.IsOwnedBy(requesterID) {
		return nil, domain.ErrForbidden
	}

	return product, nil
}
