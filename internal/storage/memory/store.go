// Package memory provides an in-memory ObjectStore for tests and local
// development.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/prn-tf/victoria-catalog/internal/storage"
)

type object struct {
	data        []byte
	contentType string
}

// Store implements storage.ObjectStore with an in-memory map.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object

	// FailPuts and FailDeletes force errors for failure-path tests.
	FailPuts    bool
	FailDeletes bool
}

// NewStore creates a new in-memory object store.
func NewStore() *Store {
	return &Store{
		objects: make(map[string]object),
	}
}

// Put stores an object under the given key.
func (s *Store) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if s.FailPuts {
		return fmt.Errorf("put %s: simulated storage failure", key)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read object %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{data: data, contentType: contentType}

	return nil
}

// Get retrieves an object by key.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete removes an object by key. Deleting a missing key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.FailDeletes {
		return fmt.Errorf("delete %s: simulated storage failure", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)

	return nil
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Ensure Store implements storage.ObjectStore.
var _ storage.ObjectStore = (*Store)(nil)
