package assetstore

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// uploadFolder groups all product images under one Cloudinary folder.
const uploadFolder = "products"

// CloudinaryStore is the production Store backed by Cloudinary.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStore creates a Store from the three Cloudinary credentials.
func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

// Upload stores one image and returns its URL and public ID.
func (s *CloudinaryStore) Upload(ctx context.Context, file io.Reader, filename string) (*Asset, error) {
	res, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       uploadFolder,
		ResourceType: "image",
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload of %s failed: %w", filename, err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload of %s failed: %s", filename, res.Error.Message)
	}
	return &Asset{
		URL:     res.SecureURL,
		AssetID: res.PublicID,
	}, nil
}

// Delete removes an uploaded image by its public ID.
func (s *CloudinaryStore) Delete(ctx context.Context, assetID string) error {
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: assetID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy of %s failed: %w", assetID, err)
	}
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("cloudinary destroy of %s returned %q", assetID, res.Result)
	}
	return nil
}
