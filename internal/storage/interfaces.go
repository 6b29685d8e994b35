// Package storage defines interfaces for object storage backends.
// The storage layer is responsible for persisting and retrieving raw image
// bytes; image metadata lives in the relational database.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned when a requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore defines the interface for object storage backends.
// Implementations include S3-compatible stores and an in-memory store for
// tests and local development.
type ObjectStore interface {
	// Put stores an object under the given key.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - key: Storage key, unique per object
	//   - reader: Source of the object bytes
	//   - size: Size in bytes
	//   - contentType: MIME type of the object
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Get retrieves an object by key.
	// Returns a ReadCloser that must be closed after use.
	// Returns ErrObjectNotFound if the key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object by key.
	// Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
