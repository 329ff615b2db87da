package assetstore

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of Store, used in tests and
// local development. Failures can be scripted per filename or per asset ID
// so compensation paths are exercisable.
type MemoryStore struct {
	mu      sync.Mutex
	assets  map[string]string // assetID -> URL
	uploads int

	// FailUploads makes Upload fail for the named files.
	FailUploads map[string]error
	// FailDeletes makes Delete fail for the named asset IDs.
	FailDeletes map[string]error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assets:      make(map[string]string),
		FailUploads: make(map[string]error),
		FailDeletes: make(map[string]error),
	}
}

// Upload stores the file under a generated asset ID.
func (s *MemoryStore) Upload(ctx context.Context, file io.Reader, filename string) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.FailUploads[filename]; ok {
		return nil, err
	}
	s.uploads++
	id := "mem/" + uuid.New().String()
	url := fmt.Sprintf("https://assets.invalid/%s/%s", id, filename)
	s.assets[id] = url
	return &Asset{URL: url, AssetID: id}, nil
}

// Delete removes an asset by ID.
func (s *MemoryStore) Delete(ctx context.Context, assetID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.FailDeletes[assetID]; ok {
		return err
	}
	if _, ok := s.assets[assetID]; !ok {
		return fmt.Errorf("asset %s not found", assetID)
	}
	delete(s.assets, assetID)
	return nil
}

// Has reports whether an asset ID still resolves in the store.
func (s *MemoryStore) Has(assetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.assets[assetID]
	return ok
}

// Len returns the number of stored assets.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.assets)
}

// UploadCount returns how many uploads have succeeded.
func (s *MemoryStore) UploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}
