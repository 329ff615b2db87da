package models

import "time"

// Categories is the closed set of product categories accepted by the store.
var Categories = []string{
	"All",
	"Electronics",
	"Footwear",
	"Accessories",
	"Bags",
	"Fashion",
	"Mobiles & Tablets",
}

// IsValidCategory reports whether c is one of the known categories.
func IsValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultAltText is applied to an ImageAsset uploaded without one.
const DefaultAltText = "Product image"

// ImageAsset is a remotely hosted product image. AssetID is the opaque key
// the asset store needs to delete the binary. An asset is owned by exactly
// one product; when it is removed from its product it is deleted from the
// store, never reassigned.
type ImageAsset struct {
	URL     string `json:"url"`
	AssetID string `json:"asset_id"`
	AltText string `json:"alt_text,omitempty"`
}

// Product represents a product in the store. Field bounds are enforced by
// the validation package before anything reaches a repository; a persisted
// product always carries at least the configured minimum number of images.
type Product struct {
	ID          string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title       string       `json:"title"`
	Category    string       `json:"category"`
	Price       float64      `json:"price"`
	Description string       `json:"description"`
	Stock       int          `json:"stock"`
	Images      []ImageAsset `json:"images" gorm:"serializer:json"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
