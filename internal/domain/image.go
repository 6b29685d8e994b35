package domain

import (
	"time"
)

// Accepted content types for image uploads. jpg appears alongside jpeg
// because some clients still send the non-standard variant.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// Image represents an uploaded product image. The bytes live in the
// external object store; only the storage key is kept here.
type Image struct {
	// ImageID is the unique identifier for the image (auto-generated).
	ImageID int64 `json:"image_id"`

	// ProductID references the owning product. Immutable after creation.
	ProductID int64 `json:"product_id"`

	// FileName is the original filename supplied at upload.
	FileName string `json:"file_name"`

	// S3BucketPath is the object store key. Keys are minted once per
	// upload (random token + filename) and never reused after deletion.
	S3BucketPath string `json:"s3_bucket_path"`

	// DateCreated is the timestamp when the image row was created.
	DateCreated time.Time `json:"date_created"`
}

// NewImage creates a new Image for a product.
func NewImage(productID int64, fileName, storageKey string) *Image {
	return &Image{
		ProductID:    productID,
		FileName:     fileName,
		S3BucketPath: storageKey,
		DateCreated:  time.Now().UTC(),
	}
}

// BelongsTo reports whether the image is attached to the given product.
func (i *Image) BelongsTo(productID int64) bool {
	return i.ProductID == productID
}
