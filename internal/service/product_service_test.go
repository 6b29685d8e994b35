package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/victoria-catalog/internal/domain"
	"github.com/prn-tf/victoria-catalog/internal/lock"
	"github.com/prn-tf/victoria-catalog/internal/storage/memory"
)

// MockProductRepository is a mock implementation of repository.ProductRepository.
type MockProductRepository struct {
	products  map[int64]*domain.Product
	nextID    int64
	createErr error
	getErr    error
	updateErr error
	deleteErr error
}

func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[int64]*domain.Product),
		nextID:   1,
	}
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, p := range m.products {
		if p.SKU == product.SKU {
			return domain.ErrSKUConflict
		}
	}
	product.ID = m.nextID
	m.nextID++
	m.products[product.ID] = product
	return nil
}

func (m *MockProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if p, exists := m.products[id]; exists {
		clone := *p
		return &clone, nil
	}
	return nil, domain.ErrProductNotFound
}

func (m *MockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, exists := m.products[product.ID]; !exists {
		return domain.ErrProductNotFound
	}
	for _, p := range m.products {
		if p.ID != product.ID && p.SKU == product.SKU {
			return domain.ErrSKUConflict
		}
	}
	clone := *product
	m.products[product.ID] = &clone
	return nil
}

func (m *MockProductRepository) Delete(ctx context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, exists := m.products[id]; !exists {
		return domain.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *MockProductRepository) SKUExists(ctx context.Context, sku string, excludeID int64) (bool, error) {
	for _, p := range m.products {
		if p.ID != excludeID && p.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

// MockImageRepository is a mock implementation of repository.ImageRepository.
type MockImageRepository struct {
	images    map[int64]*domain.Image
	nextID    int64
	createErr error
	listErr   error
}

func NewMockImageRepository() *MockImageRepository {
	return &MockImageRepository{
		images: make(map[int64]*domain.Image),
		nextID: 1,
	}
}

func (m *MockImageRepository) Create(ctx context.Context, image *domain.Image) error {
	if m.createErr != nil {
		return m.createErr
	}
	image.ImageID = m.nextID
	m.nextID++
	m.images[image.ImageID] = image
	return nil
}

func (m *MockImageRepository) GetByID(ctx context.Context, id int64) (*domain.Image, error) {
	if img, exists := m.images[id]; exists {
		return img, nil
	}
	return nil, domain.ErrImageNotFound
}

func (m *MockImageRepository) ListByProduct(ctx context.Context, productID int64) ([]*domain.Image, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*domain.Image
	for _, img := range m.images {
		if img.ProductID == productID {
			result = append(result, img)
		}
	}
	return result, nil
}

func (m *MockImageRepository) Delete(ctx context.Context, id int64) error {
	if _, exists := m.images[id]; !exists {
		return domain.ErrImageNotFound
	}
	delete(m.images, id)
	return nil
}

func (m *MockImageRepository) DeleteByProduct(ctx context.Context, productID int64) (int64, error) {
	var deleted int64
	for id, img := range m.images {
		if img.ProductID == productID {
			delete(m.images, id)
			deleted++
		}
	}
	return deleted, nil
}

func newTestProductService(products *MockProductRepository, images *MockImageRepository, store *memory.Store, locker lock.Locker) *ProductService {
	return NewProductService(products, images, store, locker, 10*time.Second, zerolog.Nop())
}

func validFields() ProductFields {
	return ProductFields{
		Name:         "Widget",
		Description:  "A widget",
		SKU:          "wid-001",
		Manufacturer: "Acme",
		Quantity:     10,
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestProductService_Create(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ProductFields)
		wantErr error
		wantSKU string
	}{
		{
			name:    "success",
			mutate:  func(f *ProductFields) {},
			wantSKU: "WID-001",
		},
		{
			name:    "sku trimmed and upper-cased",
			mutate:  func(f *ProductFields) { f.SKU = "  abc123  " },
			wantSKU: "ABC123",
		},
		{
			name:    "quantity zero allowed",
			mutate:  func(f *ProductFields) { f.Quantity = 0 },
			wantSKU: "WID-001",
		},
		{
			name:    "quantity hundred allowed",
			mutate:  func(f *ProductFields) { f.Quantity = 100 },
			wantSKU: "WID-001",
		},
		{
			name:    "quantity below range",
			mutate:  func(f *ProductFields) { f.Quantity = -1 },
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "quantity above range",
			mutate:  func(f *ProductFields) { f.Quantity = 101 },
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "missing name",
			mutate:  func(f *ProductFields) { f.Name = "" },
			wantErr: domain.ErrMissingField,
		},
		{
			name:    "missing description",
			mutate:  func(f *ProductFields) { f.Description = "" },
			wantErr: domain.ErrMissingField,
		},
		{
			name:    "missing manufacturer",
			mutate:  func(f *ProductFields) { f.Manufacturer = "" },
			wantErr: domain.ErrMissingField,
		},
		{
			name:    "whitespace-only sku",
			mutate:  func(f *ProductFields) { f.SKU = "   " },
			wantErr: domain.ErrInvalidSKU,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestProductService(NewMockProductRepository(), NewMockImageRepository(), memory.NewStore(), lock.NewNoOpLocker())

			fields := validFields()
			tt.mutate(&fields)

			output, err := svc.Create(context.Background(), CreateProductInput{OwnerUserID: 1, Fields: fields})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if output.Product.SKU != tt.wantSKU {
				t.Errorf("expected sku %s, got %s", tt.wantSKU, output.Product.SKU)
			}
			if output.Product.OwnerUserID != 1 {
				t.Errorf("expected owner 1, got %d", output.Product.OwnerUserID)
			}
			if output.Product.ID == 0 {
				t.Error("expected assigned product ID")
			}
		})
	}
}

func TestProductService_Create_SKUCollision(t *testing.T) {
	repo := NewMockProductRepository()
	svc := newTestProductService(repo, NewMockImageRepository(), memory.NewStore(), lock.NewNoOpLocker())

	if _, err := svc.Create(context.Background(), CreateProductInput{OwnerUserID: 1, Fields: validFields()}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// The same SKU in different raw spelling still collides after
	// normalization, regardless of owner.
	fields := validFields()
	fields.SKU = "  wid-001 "
	_, err := svc.Create(context.Background(), CreateProductInput{OwnerUserID: 2, Fields: fields})
	if !errors.Is(err, domain.ErrSKUConflict) {
		t.Errorf("expected ErrSKUConflict, got %v", err)
	}
}

func TestProductService_Create_SKUReserved(t *testing.T) {
	svc := newTestProductService(NewMockProductRepository(), NewMockImageRepository(), memory.NewStore(), deniedLocker{})

	_, err := svc.Create(context.Background(), CreateProductInput{OwnerUserID: 1, Fields: validFields()})
	if !errors.Is(err, domain.ErrSKUConflict) {
		t.Errorf("expected ErrSKUConflict when reservation is held, got %v", err)
	}
}

func TestProductService_Create_LockBackendDown(t *testing.T) {
	svc := newTestProductService(NewMockProductRepository(), NewMockImageRepository(), memory.NewStore(), brokenLocker{})

	output, err := svc.Create(context.Background(), CreateProductInput{OwnerUserID: 1, Fields: validFields()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Product.ID == 0 {
		t.Error("expected assigned product ID")
	}
}

func TestProductService_AuthorizeOwner(t *testing.T) {
	repo := NewMockProductRepository()
	svc := newTestProductService(repo, NewMockImageRepository(), memory.NewStore(), lock.NewNoOpLocker())
	output, err := svc.Create(context.Background(), CreateProductInput{OwnerUserID: 1, Fields: validFields()})
	if err != nil {
		t.Fatalf("setup create failed: %v", err)
	}

	if err := svc.AuthorizeOwner(context.Background(), output.Product.ID, 1); err != nil {
		t.Errorf("owner should be authorized, got %v", err)
	}
	if err := svc.AuthorizeOwner(context.Background(), output.Product.ID, 2); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-owner, got %v", err)
	}
	if err := svc.AuthorizeOwner(context.Background(), 999, 2); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("unknown product must beat forbidden, got %v", err)
	}
}

func TestProductService_Replace(t *testing.T) {
	setup := func(t *testing.T) (*ProductService, *domain.Product) {
		t.Helper()
		repo := NewMockProductRepository()
		svc := newTestProductService(repo, NewMockImageRepository(), memory.NewStore(), lock.NewNoOpLocker())
		output, err := svc.Create(context.Background(), CreateProductInput{OwnerUserID: 1, Fields: validFields()})
		if err != nil {
			t.Fatalf("setup create failed: %v", err)
		}
		return svc, output.Product
	}

	t.Run("success", func(t *testing.T) {
		svc, product := setup(t)

		updated, err := svc.Replace(context.Background(), ReplaceProductInput{
			ProductID:   product.ID,
			RequesterID: 1,
			Fields: ProductFields{
				Name:         "Gadget",
				Description:  "A gadget",
				SKU:          "gad-001",
				Manufacturer: "Acme",
				Quantity:     5,
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Name != "Gadget" || updated.SKU != "GAD-001" || updated.Quantity != 5 {
			t.Errorf("fields not replaced: %+v", updated)
		}
		if !updated.DateLastUpdated.After(product.DateLastUpdated) {
			t.Error("expected date_last_updated to advance")
		}
	})

	t.Run("unknown product yields not found", func(t *testing.T) {
		svc, _ := setup(t)
		_, err := svc.Replace(context.Background(), ReplaceProductInput{ProductID: 999, RequesterID: 1, Fields: validFields()})
		if !errors.Is(err, domain.ErrProductNotFound) {
			t.Errorf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("other owner yields forbidden", func(t *testing.T) {
		svc, product := setup(t)
		_, err := svc.Replace(context.Background(), ReplaceProductInput{ProductID: product.ID, RequesterID: 2, Fields: validFields()})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("unknown product beats forbidden", func(t *testing.T) {
		// A stranger probing a missing product learns only that it does
		// not exist.
		svc, _ := setup(t)
		_, err := svc.Replace(context.Background(), ReplaceProductInput{ProductID: 999, RequesterID: 2, Fields: validFields()})
		if !errors.Is(err, domain.ErrProductNotFound) {
			t.Errorf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("keeping own sku is not a conflict", func(t *testing.T) {
		svc, product := setup(t)
		fields := validFields()
		fields.Name = "Renamed"
		updated, err := svc.Replace(context.Background(), ReplaceProductInput{ProductID: product.ID, RequesterID: 1, Fields: fields})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Name != "Renamed" {
			t.Errorf("expected renamed product, got %s", updated.Name)
		}
	})

	t.Run("changing to taken sku conflicts", func(t *testing.T) {
		svc, product := setup(t)
		other := validFields()
		other.SKU = "OTHER-1"
		if _, err := svc.Create(context.Background(), CreateProductInput{OwnerUserID: 2, Fields: other}); err != nil {
			t.Fatalf("second create failed: %v", err)
		}

		fields := validFields()
		fields.SKU = "other-1"
		_, err := svc.Replace(context.Background(), ReplaceProductInput{ProductID: product.ID, RequesterID: 1, Fields: fields})
		if !errors.Is(err, domain.ErrSKUConflict) {
			t.Errorf("expected ErrSKUConflict, got %v", err)
		}
	})
}

func TestProductService_Patch(t *testing.T) {
	strPtr := func(s string) *string { return &s }
	intPtr := func(i int) *int { return &i }

	setup := func(t *testing.T) (*ProductService, *domain.Product) {
		t.Helper()
		svc := newTestProductService(NewMockProductRepository(), NewMockImageRepository(), memory.NewStore(), lock.NewNoOpLocker())
		output, err := svc.Create(context.Background(), CreateProductInput{OwnerUserID: 1, Fields: validFields()})
		if err != nil {
			t.Fatalf("setup create failed: %v", err)
		}
		return svc, output.Product
	}

	t.Run("empty patch rejected", func(t *testing.T) {
		svc, product := setup(t)
		_, err := svc.Patch(context.Background(), PatchProductInput{ProductID: product.ID, RequesterID: 1})
		if !errors.Is(err, domain.ErrEmptyUpdate) {
			t.Errorf("expected ErrEmptyUpdate, got %v", err)
		}
	})

	t.Run("single field", func(t *testing.T) {
		svc, product := setup(t)
		updated, err := svc.Patch(context.Background(), PatchProductInput{
			ProductID:   product.ID,
			RequesterID: 1,
			Patch:       domain.ProductPatch{Quantity: intPtr(42)},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Quantity != 42 {
			t.Errorf("expected quantity 42, got %d", updated.Quantity)
		}
		if updated.Name != product.Name {
			t.Errorf("untouched field changed: %s", updated.Name)
		}
	})

	t.Run("sku normalized", func(t *testing.T) {
		svc, product := setup(t)
		updated, err := svc.Patch(context.Background(), PatchProductInput{
			ProductID:   product.ID,
			RequesterID: 1,
			Patch:       domain.ProductPatch{SKU: strPtr("  new-sku ")},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.SKU != "NEW-SKU" {
			t.Errorf("expected NEW-SKU, got %s", updated.SKU)
		}
	})

	t.Run("same sku is a no-op change", func(t *testing.T) {
		svc, product := setup(t)
		if _, err := svc.Patch(context.Background(), PatchProductInput{
			ProductID:   product.ID,
			RequesterID: 1,
			Patch:       domain.ProductPatch{SKU: strPtr("wid-001")},
		}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("invalid quantity rejected", func(t *testing.T) {
		svc, product := setup(t)
		_, err := svc.Patch(context.Background(), PatchProductInput{
			ProductID:   product.ID,
			RequesterID: 1,
			Patch:       domain.ProductPatch{Quantity: intPtr(101)},
		})
		if !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Errorf("expected ErrInvalidQuantity, got %v", err)
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		svc, product := setup(t)
		_, err := svc.Patch(context.Background(), PatchProductInput{
			ProductID:   product.ID,
			RequesterID: 1,
			Patch:       domain.ProductPatch{Name: strPtr("")},
		})
		if !errors.Is(err, domain.ErrMissingField) {
			t.Errorf("expected ErrMissingField, got %v", err)
		}
	})

	t.Run("other owner yields forbidden", func(t *testing.T) {
		svc, product := setup(t)
		_, err := svc.Patch(context.Background(), PatchProductInput{
			ProductID:   product.ID,
			RequesterID: 2,
			Patch:       domain.ProductPatch{Name: strPtr("Hijacked")},
		})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestProductService_Delete(t *testing.T) {
	setup := func(t *testing.T) (*ProductService, *MockProductRepository, *MockImageRepository, *memory.Store, *domain.Product) {
		t.Helper()
		products := NewMockProductRepository()
		images := NewMockImageRepository()
		store := memory.NewStore()
		svc := newTestProductService(products, images, store, lock.NewNoOpLocker())
		output, err := svc.Create(context.Background(), CreateProductInput{OwnerUserID: 1, Fields: validFields()})
		if err != nil {
			t.Fatalf("setup create failed: %v", err)
		}
		return svc, products, images, store, output.Product
	}

	attachImage := func(t *testing.T, images *MockImageRepository, store *memory.Store, productID int64, key string) {
		t.Helper()
		if err := store.Put(context.Background(), key, bytes.NewReader([]byte("img")), 3, "image/png"); err != nil {
			t.Fatalf("failed to seed object: %v", err)
		}
		if err := images.Create(context.Background(), domain.NewImage(productID, "a.png", key)); err != nil {
			t.Fatalf("failed to seed image row: %v", err)
		}
	}

	t.Run("cascades to images and objects", func(t *testing.T) {
		svc, products, images, store, product := setup(t)
		attachImage(t, images, store, product.ID, "k1/a.png")
		attachImage(t, images, store, product.ID, "k2/a.png")

		if err := svc.Delete(context.Background(), DeleteProductInput{ProductID: product.ID, RequesterID: 1}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := products.GetByID(context.Background(), product.ID); !errors.Is(err, domain.ErrProductNotFound) {
			t.Error("expected product row removed")
		}
		if len(images.images) != 0 {
			t.Errorf("expected image rows removed, %d left", len(images.images))
		}
		if store.Len() != 0 {
			t.Errorf("expected objects removed, %d left", store.Len())
		}
	})

	t.Run("object delete failure does not abort", func(t *testing.T) {
		svc, products, images, store, product := setup(t)
		attachImage(t, images, store, product.ID, "k1/a.png")
		store.FailDeletes = true

		if err := svc.Delete(context.Background(), DeleteProductInput{ProductID: product.ID, RequesterID: 1}); err != nil {
			t.Fatalf("expected best-effort delete to succeed, got %v", err)
		}
		if _, err := products.GetByID(context.Background(), product.ID); !errors.Is(err, domain.ErrProductNotFound) {
			t.Error("expected product row removed despite object failure")
		}
		if len(images.images) != 0 {
			t.Error("expected image rows removed despite object failure")
		}
	})

	t.Run("other owner yields forbidden", func(t *testing.T) {
		svc, _, _, _, product := setup(t)
		err := svc.Delete(context.Background(), DeleteProductInput{ProductID: product.ID, RequesterID: 2})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("unknown product yields not found", func(t *testing.T) {
		svc, _, _, _, _ := setup(t)
		err := svc.Delete(context.Background(), DeleteProductInput{ProductID: 999, RequesterID: 1})
		if !errors.Is(err, domain.ErrProductNotFound) {
			t.Errorf("expected ErrProductNotFound, got %v", err)
		}
	})
}
