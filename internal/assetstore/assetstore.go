// Package assetstore abstracts the remote binary storage holding product
// images. Uploads carry no built-in retry; the caller owns retry and
// compensation policy.
package assetstore

import (
	"context"
	"io"
)

// Asset identifies an uploaded binary. URL is publicly retrievable; AssetID
// is the opaque key required to delete the binary later.
type Asset struct {
	URL     string
	AssetID string
}

// Store is the contract the lifecycle services depend on. Upload and Delete
// calls are independent of each other and safe to run concurrently.
type Store interface {
	Upload(ctx context.Context, file io.Reader, filename string) (*Asset, error)
	Delete(ctx context.Context, assetID string) error
}
