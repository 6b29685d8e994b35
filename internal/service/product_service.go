package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/victoria-catalog/internal/domain"
	"github.com/prn-tf/victoria-catalog/internal/lock"
	"github.com/prn-tf/victoria-catalog/internal/repository"
	"github.com/prn-tf/victoria-catalog/internal/storage"
)

// ProductService handles the product lifecycle: create, read, replace,
// patch and delete. Writes are gated on ownership; reads are open.
type ProductService struct {
	productRepo repository.ProductRepository
	imageRepo   repository.ImageRepository
	store       storage.ObjectStore
	locker      lock.Locker
	lockTTL     time.Duration
	logger      zerolog.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(
	productRepo repository.ProductRepository,
	imageRepo repository.ImageRepository,
	store storage.ObjectStore,
	locker lock.Locker,
	lockTTL time.Duration,
	logger zerolog.Logger,
) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		imageRepo:   imageRepo,
		store:       store,
		locker:      locker,
		lockTTL:     lockTTL,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// =============================================================================
// Input/Output Structs
// =============================================================================

// ProductFields carries the writable fields of a product.
type ProductFields struct {
	Name         string
	Description  string
	SKU          string
	Manufacturer string
	Quantity     int
}

// CreateProductInput contains the data needed to create a product.
type CreateProductInput struct {
	OwnerUserID int64
	Fields      ProductFields
}

// CreateProductOutput contains the result of creating a product.
type CreateProductOutput struct {
	Product *domain.Product
}

// ReplaceProductInput contains the data needed to fully replace a product.
type ReplaceProductInput struct {
	ProductID   int64
	RequesterID int64
	Fields      ProductFields
}

// PatchProductInput contains the data needed to partially update a product.
type PatchProductInput struct {
	ProductID   int64
	RequesterID int64
	Patch       domain.ProductPatch
}

// DeleteProductInput contains the data needed to delete a product.
type DeleteProductInput struct {
	ProductID   int64
	RequesterID int64
}

// =============================================================================
// Service Methods
// =============================================================================

// Get retrieves a product by ID. Reads require no authentication and no
// ownership check.
func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, domain.ErrProductNotFound
		}
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to get product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return product, nil
}

// AuthorizeOwner verifies that the product exists and is owned by the
// requester. Handlers call this before reading a request body so missing
// or foreign products are reported ahead of any body error.
func (s *ProductService) AuthorizeOwner(ctx context.Context, productID, requesterID int64) error {
	_, err := s.getOwned(ctx, productID, requesterID)
	return err
}

// Create validates the fields, normalizes the SKU, checks uniqueness and
// persists a new product owned by the requester.
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*CreateProductOutput, error) {
	fields, err := s.validateFields(input.Fields)
	if err != nil {
		return nil, err
	}

	release, err := s.reserveSKU(ctx, fields.SKU)
	if err != nil {
		return nil, err
	}
	defer release()

	taken, err := s.productRepo.SKUExists(ctx, fields.SKU, 0)
	if err != nil {
		s.logger.Error().Err(err).Str("sku", fields.SKU).Msg("failed to check SKU uniqueness")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if taken {
		return nil, domain.NewDomainError(domain.ErrSKUConflict, "sku already in use", fields.SKU)
	}

	product := domain.NewProduct(
		fields.Name,
		fields.Description,
		fields.SKU,
		fields.Manufacturer,
		fields.Quantity,
		input.OwnerUserID,
	)

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, domain.ErrSKUConflict) {
			return nil, domain.NewDomainError(domain.ErrSKUConflict, "sku already in use", fields.SKU)
		}
		s.logger.Error().Err(err).Str("sku", fields.SKU).Msg("failed to create product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("product_id", product.ID).
		Int64("owner_id", product.OwnerUserID).
		Str("sku", product.SKU).
		Msg("product created")

	return &CreateProductOutput{Product: product}, nil
}

// Replace overwrites every writable field of an owned product.
func (s *ProductService) Replace(ctx context.Context, input ReplaceProductInput) (*domain.Product, error) {
	product, err := s.getOwned(ctx, input.ProductID, input.RequesterID)
	if err != nil {
		return nil, err
	}

	fields, err := s.validateFields(input.Fields)
	if err != nil {
		return nil, err
	}

	if fields.SKU != product.SKU {
		release, err := s.reserveSKU(ctx, fields.SKU)
		if err != nil {
			return nil, err
		}
		defer release()

		taken, err := s.productRepo.SKUExists(ctx, fields.SKU, product.ID)
		if err != nil {
			s.logger.Error().Err(err).Str("sku", fields.SKU).Msg("failed to check SKU uniqueness")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		if taken {
			return nil, domain.NewDomainError(domain.ErrSKUConflict, "sku already in use", fields.SKU)
		}
	}

	product.Name = fields.Name
	product.Description = fields.Description
	product.SKU = fields.SKU
	product.Manufacturer = fields.Manufacturer
	product.Quantity = fields.Quantity
	product.DateLastUpdated = time.Now().UTC()

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, domain.ErrSKUConflict) {
			return nil, domain.NewDomainError(domain.ErrSKUConflict, "sku already in use", fields.SKU)
		}
		s.logger.Error().Err(err).Int64("product_id", product.ID).Msg("failed to replace product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("product_id", product.ID).Msg("product replaced")
	return product, nil
}

// Patch applies a partial update to an owned product. Setting a field to
// its current value is a valid no-op change.
func (s *ProductService) Patch(ctx context.Context, input PatchProductInput) (*domain.Product, error) {
	product, err := s.getOwned(ctx, input.ProductID, input.RequesterID)
	if err != nil {
		return nil, err
	}

	if input.Patch.IsEmpty() {
		return nil, domain.ErrEmptyUpdate
	}

	patch := input.Patch
	if patch.SKU != nil {
		sku := domain.NormalizeSKU(*patch.SKU)
		if sku == "" {
			return nil, domain.ErrInvalidSKU
		}
		patch.SKU = &sku

		if sku != product.SKU {
			release, err := s.reserveSKU(ctx, sku)
			if err != nil {
				return nil, err
			}
			defer release()

			taken, err := s.productRepo.SKUExists(ctx, sku, product.ID)
			if err != nil {
				s.logger.Error().Err(err).Str("sku", sku).Msg("failed to check SKU uniqueness")
				return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
			}
			if taken {
				return nil, domain.NewDomainError(domain.ErrSKUConflict, "sku already in use", sku)
			}
		}
	}
	if patch.Quantity != nil && !domain.ValidQuantity(*patch.Quantity) {
		return nil, domain.ErrInvalidQuantity
	}
	if patch.Name != nil && *patch.Name == "" {
		return nil, domain.NewDomainError(domain.ErrMissingField, "name must not be empty", "name")
	}
	if patch.Description != nil && *patch.Description == "" {
		return nil, domain.NewDomainError(domain.ErrMissingField, "description must not be empty", "description")
	}
	if patch.Manufacturer != nil && *patch.Manufacturer == "" {
		return nil, domain.NewDomainError(domain.ErrMissingField, "manufacturer must not be empty", "manufacturer")
	}

	patch.Apply(product)

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, domain.ErrSKUConflict) {
			return nil, domain.NewDomainError(domain.ErrSKUConflict, "sku already in use", product.SKU)
		}
		s.logger.Error().Err(err).Int64("product_id", product.ID).Msg("failed to patch product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("product_id", product.ID).Msg("product updated")
	return product, nil
}

// Delete removes an owned product together with its images. Image blobs
// are deleted best-effort before the rows; a failed blob delete is logged
// and does not abort the cascade.
func (s *ProductService) Delete(ctx context.Context, input DeleteProductInput) error {
	product, err := s.getOwned(ctx, input.ProductID, input.RequesterID)
	if err != nil {
		return err
	}

	images, err := s.imageRepo.ListByProduct(ctx, product.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", product.ID).Msg("failed to list images for delete")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	for _, image := range images {
		if err := s.store.Delete(ctx, image.S3BucketPath); err != nil {
			s.logger.Warn().
				Err(fmt.Errorf("%w: %v", domain.ErrStorageDeleteFailed, err)).
				Int64("image_id", image.ImageID).
				Str("key", image.S3BucketPath).
				Msg("failed to delete image object, continuing")
		}
	}

	deleted, err := s.imageRepo.DeleteByProduct(ctx, product.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", product.ID).Msg("failed to delete image rows")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.productRepo.Delete(ctx, product.ID); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return domain.ErrProductNotFound
		}
		s.logger.Error().Err(err).Int64("product_id", product.ID).Msg("failed to delete product")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("product_id", product.ID).
		Int64("owner_id", product.OwnerUserID).
		Int64("images_deleted", deleted).
		Msg("product deleted")

	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// getOwned fetches a product and verifies the requester owns it.
// Existence is checked before ownership, so an unknown product yields
// not-found rather than forbidden.
func (s *ProductService) getOwned(ctx context.Context, productID, requesterID int64) (*domain.Product, error) {
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

// validateFields validates a full set of product fields and returns them
// with the SKU normalized.
func (s *ProductService) validateFields(fields ProductFields) (ProductFields, error) {
	if fields.Name == "" {
		return fields, domain.NewDomainError(domain.ErrMissingField, "name is required", "name")
	}
	if fields.Description == "" {
		return fields, domain.NewDomainError(domain.ErrMissingField, "description is required", "description")
	}
	if fields.Manufacturer == "" {
		return fields, domain.NewDomainError(domain.ErrMissingField, "manufacturer is required", "manufacturer")
	}

	fields.SKU = domain.NormalizeSKU(fields.SKU)
	if fields.SKU == "" {
		return fields, domain.ErrInvalidSKU
	}

	if !domain.ValidQuantity(fields.Quantity) {
		return fields, domain.ErrInvalidQuantity
	}

	return fields, nil
}

// reserveSKU takes a best-effort reservation on a normalized SKU for the
// duration of the check-then-insert window. The returned func releases
// the reservation. A lock held elsewhere is reported as a conflict; a
// lock backend failure degrades to relying on the unique index.
func (s *ProductService) reserveSKU(ctx context.Context, sku string) (func(), error) {
	lockKey := lock.Keys.SKUReservation(sku)

	acquired, err := s.locker.Acquire(ctx, lockKey, s.lockTTL)
	if err != nil {
		s.logger.Warn().Err(err).Str("sku", sku).Msg("sku reservation unavailable")
		return func() {}, nil
	}
	if !acquired {
		return nil, domain.NewDomainError(domain.ErrSKUConflict, "sku reserved by concurrent request", sku)
	}

	return func() {
		if _, err := s.locker.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			s.logger.Warn().Err(err).Str("sku", sku).Msg("failed to release sku reservation")
		}
	}, nil
}
