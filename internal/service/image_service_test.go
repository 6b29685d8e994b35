package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/prn-tf/victoria-catalog/internal/domain"
	"github.com/prn-tf/victoria-catalog/internal/lock"
	"github.com/prn-tf/victoria-catalog/internal/storage/memory"
)

func newImageFixture(t *testing.T) (*ImageService, *MockImageRepository, *memory.Store, *domain.Product) {
	t.Helper()

	products := NewMockProductRepository()
	images := NewMockImageRepository()
	store := memory.NewStore()

	productSvc := newTestProductService(products, images, store, lock.NewNoOpLocker())
	output, err := productSvc.Create(context.Background(), CreateProductInput{OwnerUserID: 1, Fields: validFields()})
	if err != nil {
		t.Fatalf("fixture create failed: %v", err)
	}

	svc := NewImageService(images, products, store, zerolog.Nop())
	return svc, images, store, output.Product
}

func uploadInput(productID int64) UploadImageInput {
	body := []byte("fake png bytes")
	return UploadImageInput{
		ProductID:   productID,
		RequesterID: 1,
		FileName:    "photo.png",
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        bytes.NewReader(body),
	}
}

func TestImageService_AuthorizeOwner(t *testing.T) {
	svc, _, _, product := newImageFixture(t)

	if err := svc.AuthorizeOwner(context.Background(), product.ID, product.OwnerUserID); err != nil {
		t.Errorf("owner should be authorized, got %v", err)
	}
	if err := svc.AuthorizeOwner(context.Background(), product.ID, product.OwnerUserID+1); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-owner, got %v", err)
	}
	if err := svc.AuthorizeOwner(context.Background(), 999, product.OwnerUserID); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("unknown product must beat forbidden, got %v", err)
	}
}

func TestImageService_Upload(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, _, store, product := newImageFixture(t)

		output, err := svc.Upload(context.Background(), uploadInput(product.ID))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		image := output.Image
		if image.ImageID == 0 {
			t.Error("expected assigned image ID")
		}
		if image.ProductID != product.ID {
			t.Errorf("expected product %d, got %d", product.ID, image.ProductID)
		}
		if image.FileName != "photo.png" {
			t.Errorf("expected file name photo.png, got %s", image.FileName)
		}
		if !strings.HasSuffix(image.S3BucketPath, "/photo.png") {
			t.Errorf("expected key ending in /photo.png, got %s", image.S3BucketPath)
		}
		if image.S3BucketPath == "photo.png" {
			t.Error("expected a unique key prefix")
		}

		obj, err := store.Get(context.Background(), image.S3BucketPath)
		if err != nil {
			t.Fatalf("object not stored: %v", err)
		}
		obj.Close()
	})

	t.Run("fresh key per upload", func(t *testing.T) {
		svc, _, _, product := newImageFixture(t)

		first, err := svc.Upload(context.Background(), uploadInput(product.ID))
		if err != nil {
			t.Fatalf("first upload failed: %v", err)
		}
		second, err := svc.Upload(context.Background(), uploadInput(product.ID))
		if err != nil {
			t.Fatalf("second upload failed: %v", err)
		}
		if first.Image.S3BucketPath == second.Image.S3BucketPath {
			t.Error("expected distinct storage keys for identical filenames")
		}
	})

	t.Run("unsupported content type", func(t *testing.T) {
		svc, _, store, product := newImageFixture(t)

		input := uploadInput(product.ID)
		input.ContentType = "application/pdf"
		input.FileName = "doc.pdf"

		_, err := svc.Upload(context.Background(), input)
		if !errors.Is(err, domain.ErrUnsupportedMediaType) {
			t.Errorf("expected ErrUnsupportedMediaType, got %v", err)
		}
		if store.Len() != 0 {
			t.Error("rejected upload must not reach the object store")
		}
	})

	t.Run("storage failure leaves no row", func(t *testing.T) {
		svc, images, store, product := newImageFixture(t)
		store.FailPuts = true

		_, err := svc.Upload(context.Background(), uploadInput(product.ID))
		if !errors.Is(err, domain.ErrStorageWriteFailed) {
			t.Errorf("expected ErrStorageWriteFailed, got %v", err)
		}
		if len(images.images) != 0 {
			t.Error("failed upload must not create a metadata row")
		}
	})

	t.Run("row failure cleans up object", func(t *testing.T) {
		svc, images, store, product := newImageFixture(t)
		images.createErr = errors.New("db down")

		_, err := svc.Upload(context.Background(), uploadInput(product.ID))
		if !errors.Is(err, ErrInternalError) {
			t.Errorf("expected ErrInternalError, got %v", err)
		}
		if store.Len() != 0 {
			t.Error("expected orphaned object cleaned up")
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		svc, _, _, _ := newImageFixture(t)
		_, err := svc.Upload(context.Background(), uploadInput(999))
		if !errors.Is(err, domain.ErrProductNotFound) {
			t.Errorf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("other owner forbidden", func(t *testing.T) {
		svc, _, _, product := newImageFixture(t)
		input := uploadInput(product.ID)
		input.RequesterID = 2
		_, err := svc.Upload(context.Background(), input)
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestImageService_Get(t *testing.T) {
	svc, images, store, product := newImageFixture(t)

	uploaded, err := svc.Upload(context.Background(), uploadInput(product.ID))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	t.Run("success", func(t *testing.T) {
		image, err := svc.Get(context.Background(), GetImageInput{
			ProductID:   product.ID,
			ImageID:     uploaded.Image.ImageID,
			RequesterID: 1,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if image.ImageID != uploaded.Image.ImageID {
			t.Errorf("expected image %d, got %d", uploaded.Image.ImageID, image.ImageID)
		}
	})

	t.Run("unknown image", func(t *testing.T) {
		_, err := svc.Get(context.Background(), GetImageInput{ProductID: product.ID, ImageID: 999, RequesterID: 1})
		if !errors.Is(err, domain.ErrImageNotFound) {
			t.Errorf("expected ErrImageNotFound, got %v", err)
		}
	})

	t.Run("image under another product is not found", func(t *testing.T) {
		// A real image queried through the wrong product path must look
		// exactly like a missing one.
		other := domain.NewImage(12345, "b.png", "k/b.png")
		if err := images.Create(context.Background(), other); err != nil {
			t.Fatalf("failed to seed image: %v", err)
		}
		if err := store.Put(context.Background(), other.S3BucketPath, bytes.NewReader([]byte("x")), 1, "image/png"); err != nil {
			t.Fatalf("failed to seed object: %v", err)
		}

		_, err := svc.Get(context.Background(), GetImageInput{
			ProductID:   product.ID,
			ImageID:     other.ImageID,
			RequesterID: 1,
		})
		if !errors.Is(err, domain.ErrImageNotFound) {
			t.Errorf("expected ErrImageNotFound, got %v", err)
		}
	})
}

func TestImageService_List(t *testing.T) {
	svc, _, _, product := newImageFixture(t)

	for i := 0; i < 3; i++ {
		if _, err := svc.Upload(context.Background(), uploadInput(product.ID)); err != nil {
			t.Fatalf("upload %d failed: %v", i, err)
		}
	}

	images, err := svc.List(context.Background(), ListImagesInput{ProductID: product.ID, RequesterID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(images) != 3 {
		t.Errorf("expected 3 images, got %d", len(images))
	}

	_, err = svc.List(context.Background(), ListImagesInput{ProductID: product.ID, RequesterID: 2})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-owner, got %v", err)
	}
}

func TestImageService_Delete(t *testing.T) {
	t.Run("removes row and object", func(t *testing.T) {
		svc, images, store, product := newImageFixture(t)
		uploaded, err := svc.Upload(context.Background(), uploadInput(product.ID))
		if err != nil {
			t.Fatalf("upload failed: %v", err)
		}

		if err := svc.Delete(context.Background(), DeleteImageInput{
			ProductID:   product.ID,
			ImageID:     uploaded.Image.ImageID,
			RequesterID: 1,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(images.images) != 0 {
			t.Error("expected image row removed")
		}
		if store.Len() != 0 {
			t.Error("expected object removed")
		}
	})

	t.Run("object delete failure is not surfaced", func(t *testing.T) {
		svc, images, store, product := newImageFixture(t)
		uploaded, err := svc.Upload(context.Background(), uploadInput(product.ID))
		if err != nil {
			t.Fatalf("upload failed: %v", err)
		}
		store.FailDeletes = true

		if err := svc.Delete(context.Background(), DeleteImageInput{
			ProductID:   product.ID,
			ImageID:     uploaded.Image.ImageID,
			RequesterID: 1,
		}); err != nil {
			t.Fatalf("expected best-effort delete to succeed, got %v", err)
		}
		if len(images.images) != 0 {
			t.Error("expected image row removed despite object failure")
		}
	})

	t.Run("delete twice yields not found", func(t *testing.T) {
		svc, _, _, product := newImageFixture(t)
		uploaded, err := svc.Upload(context.Background(), uploadInput(product.ID))
		if err != nil {
			t.Fatalf("upload failed: %v", err)
		}

		input := DeleteImageInput{ProductID: product.ID, ImageID: uploaded.Image.ImageID, RequesterID: 1}
		if err := svc.Delete(context.Background(), input); err != nil {
			t.Fatalf("first delete failed: %v", err)
		}
		if err := svc.Delete(context.Background(), input); !errors.Is(err, domain.ErrImageNotFound) {
			t.Errorf("expected ErrImageNotFound on second delete, got %v", err)
		}
	})
}
