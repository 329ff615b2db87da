package services_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"luxe/internal/apperr"
	"luxe/internal/assetstore"
	"luxe/internal/models"
	"luxe/internal/repositories"
	"luxe/internal/services"
	"luxe/internal/validation"
)

// makeFileHeaders builds real multipart file headers for the given
// filenames, each an image/png part named "images".
func makeFileHeaders(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range names {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, name))
		header.Set("Content-Type", "image/png")
		part, err := w.CreatePart(header)
		assert.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes for " + name))
		assert.NoError(t, err)
	}
	assert.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	assert.NoError(t, err)
	return form.File["images"]
}

func lampCommand() *validation.CreateProductCommand {
	return &validation.CreateProductCommand{
		Title:       "Desk Lamp",
		Category:    "Electronics",
		Price:       19.99,
		Description: "A bright lamp for desks and reading areas.",
		Stock:       10,
	}
}

func TestProductService_CreateProduct(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	store := assetstore.NewMemoryStore()
	service := services.NewProductService(repo, store, time.Second)

	files := makeFileHeaders(t, "a.png", "b.png")
	product, err := service.CreateProduct(context.Background(), lampCommand(), files)

	assert.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Len(t, product.Images, 2)
	for _, img := range product.Images {
		assert.NotEmpty(t, img.URL)
		assert.NotEmpty(t, img.AssetID)
		assert.Equal(t, models.DefaultAltText, img.AltText)
		assert.True(t, store.Has(img.AssetID))
	}

	persisted, err := repo.GetByID(product.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Desk Lamp", persisted.Title)
	assert.Equal(t, 19.99, persisted.Price)
}

func TestProductService_CreateProduct_UploadFailureCompensates(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	store := assetstore.NewMemoryStore()
	store.FailUploads["b.png"] = errors.New("provider unavailable")
	service := services.NewProductService(repo, store, time.Second)

	files := makeFileHeaders(t, "a.png", "b.png")
	product, err := service.CreateProduct(context.Background(), lampCommand(), files)

	assert.Error(t, err)
	assert.Nil(t, product)
	assert.True(t, apperr.IsKind(err, apperr.KindUpload))

	// The upload of a.png may or may not have completed before the failure
	// canceled it; either way nothing is left in the store and no record
	// exists.
	assert.Equal(t, 0, store.Len())
	products, err := repo.GetAll()
	assert.NoError(t, err)
	assert.Empty(t, products)
}

func TestProductService_CreateProduct_PersistFailureCompensates(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	repo.CreateErr = errors.New("database down")
	store := assetstore.NewMemoryStore()
	service := services.NewProductService(repo, store, time.Second)

	files := makeFileHeaders(t, "a.png", "b.png")
	product, err := service.CreateProduct(context.Background(), lampCommand(), files)

	assert.Error(t, err)
	assert.Nil(t, product)
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))
	assert.Equal(t, 2, store.UploadCount())
	assert.Equal(t, 0, store.Len())
}

func TestProductService_UpdateProduct_PartialFields(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	store := assetstore.NewMemoryStore()
	service := services.NewProductService(repo, store, time.Second)

	created, err := service.CreateProduct(context.Background(), lampCommand(), makeFileHeaders(t, "a.png", "b.png"))
	assert.NoError(t, err)

	newPrice := 24.99
	updated, err := service.UpdateProduct(context.Background(), created.ID, &validation.UpdateProductCommand{Price: &newPrice}, nil)

	assert.NoError(t, err)
	assert.Equal(t, 24.99, updated.Price)
	// Untouched fields and the image set survive.
	assert.Equal(t, "Desk Lamp", updated.Title)
	assert.Equal(t, created.Images, updated.Images)
	assert.Equal(t, 2, store.Len())
}

func TestProductService_UpdateProduct_ReplacesImageSet(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	store := assetstore.NewMemoryStore()
	service := services.NewProductService(repo, store, time.Second)

	created, err := service.CreateProduct(context.Background(), lampCommand(), makeFileHeaders(t, "a.png", "b.png"))
	assert.NoError(t, err)
	oldAssets := created.Images

	updated, err := service.UpdateProduct(context.Background(), created.ID, &validation.UpdateProductCommand{}, makeFileHeaders(t, "c.png", "d.png", "e.png"))

	assert.NoError(t, err)
	assert.Len(t, updated.Images, 3)
	for _, img := range updated.Images {
		assert.True(t, store.Has(img.AssetID))
	}
	for _, img := range oldAssets {
		assert.False(t, store.Has(img.AssetID), "old asset %s should be deleted", img.AssetID)
	}
	assert.Equal(t, 3, store.Len())
}

func TestProductService_UpdateProduct_PersistFailureKeepsOriginal(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	store := assetstore.NewMemoryStore()
	service := services.NewProductService(repo, store, time.Second)

	created, err := service.CreateProduct(context.Background(), lampCommand(), makeFileHeaders(t, "a.png", "b.png"))
	assert.NoError(t, err)

	repo.UpdateErr = errors.New("database down")
	newTitle := "Bright Desk Lamp"
	_, err = service.UpdateProduct(context.Background(), created.ID, &validation.UpdateProductCommand{Title: &newTitle}, makeFileHeaders(t, "c.png", "d.png"))
	assert.Error(t, err)

	// The record is unchanged and the store holds exactly the original
	// assets: the new uploads were cleaned up, the old ones never touched.
	repo.UpdateErr = nil
	current, err := repo.GetByID(created.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Desk Lamp", current.Title)
	assert.Equal(t, created.Images, current.Images)
	assert.Equal(t, 2, store.Len())
	for _, img := range created.Images {
		assert.True(t, store.Has(img.AssetID))
	}
}

func TestProductService_UpdateProduct_NotFound(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	service := services.NewProductService(repo, assetstore.NewMemoryStore(), time.Second)

	_, err := service.UpdateProduct(context.Background(), "missing", &validation.UpdateProductCommand{}, nil)
	assert.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestProductService_DeleteProduct(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	store := assetstore.NewMemoryStore()
	service := services.NewProductService(repo, store, time.Second)

	created, err := service.CreateProduct(context.Background(), lampCommand(), makeFileHeaders(t, "a.png", "b.png"))
	assert.NoError(t, err)

	report, err := service.DeleteProduct(context.Background(), created.ID)

	assert.NoError(t, err)
	assert.Equal(t, 2, report.AssetsRequested)
	assert.Equal(t, 2, report.AssetsDeleted)
	assert.Empty(t, report.FailedAssets)
	assert.Equal(t, 0, store.Len())

	_, err = repo.GetByID(created.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestProductService_DeleteProduct_AssetFailuresAreNonFatal(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	store := assetstore.NewMemoryStore()
	service := services.NewProductService(repo, store, time.Second)

	created, err := service.CreateProduct(context.Background(), lampCommand(), makeFileHeaders(t, "a.png", "b.png", "c.png"))
	assert.NoError(t, err)

	// Two of the three remote deletions fail.
	store.FailDeletes[created.Images[0].AssetID] = errors.New("provider error")
	store.FailDeletes[created.Images[1].AssetID] = errors.New("provider error")

	report, err := service.DeleteProduct(context.Background(), created.ID)

	assert.NoError(t, err)
	assert.Equal(t, 3, report.AssetsRequested)
	assert.Equal(t, 1, report.AssetsDeleted)
	assert.Len(t, report.FailedAssets, 2)

	// The record is gone regardless of the residue in the store.
	_, err = repo.GetByID(created.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Equal(t, 2, store.Len())
}

func TestProductService_DeleteProduct_NotFound(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	service := services.NewProductService(repo, assetstore.NewMemoryStore(), time.Second)

	_, err := service.DeleteProduct(context.Background(), "missing")
	assert.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
