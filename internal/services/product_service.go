package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"luxe/internal/apperr"
	"luxe/internal/assetstore"
	"luxe/internal/models"
	"luxe/internal/repositories"
	"luxe/internal/validation"
)

// ProductService orchestrates the product lifecycle across the repository
// and the asset store. Multi-step operations compensate already-completed
// work on failure so neither orphaned assets nor partial records are left
// behind.
type ProductService struct {
	repo      repositories.ProductRepository
	store     assetstore.Store
	opTimeout time.Duration
}

// NewProductService creates a new ProductService. opTimeout bounds each
// individual asset store call.
func NewProductService(repo repositories.ProductRepository, store assetstore.Store, opTimeout time.Duration) *ProductService {
	if opTimeout <= 0 {
		opTimeout = 30 * time.Second
	}
	return &ProductService{
		repo:      repo,
		store:     store,
		opTimeout: opTimeout,
	}
}

// DeleteReport describes the outcome of a product deletion. Remote asset
// deletions are best-effort; their failures are reported here, never fatal.
type DeleteReport struct {
	AssetsRequested int      `json:"assets_requested"`
	AssetsDeleted   int      `json:"assets_deleted"`
	FailedAssets    []string `json:"failed_assets,omitempty"`
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	products, err := s.repo.GetAll()
	if err != nil {
		return nil, asAppError(err, "could not retrieve products")
	}
	return products, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, asAppError(err, "could not retrieve product")
	}
	return product, nil
}

// CreateProduct uploads all image files concurrently, then persists the new
// record. If any upload fails, every upload that did succeed is deleted and
// the operation fails as a whole; if persistence fails, the just-uploaded
// assets are deleted. Either way no asset is orphaned and no record exists.
func (s *ProductService) CreateProduct(ctx context.Context, cmd *validation.CreateProductCommand, files []*multipart.FileHeader) (*models.Product, error) {
	assets, err := s.uploadAll(ctx, files)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Title:       cmd.Title,
		Category:    cmd.Category,
		Price:       cmd.Price,
		Description: cmd.Description,
		Stock:       cmd.Stock,
		Images:      assets,
	}
	if err := s.repo.Create(product); err != nil {
		s.deleteAssets(ctx, assetIDs(assets))
		return nil, apperr.Internal("failed to create product", err)
	}
	return product, nil
}

// UpdateProduct applies a partial update. When a replacement image set is
// supplied, the new files are fully uploaded first, the record is persisted
// referencing them, and only then are the old assets deleted. The record
// therefore never references a partial image set, and the old assets outlive
// any failure of the steps that precede their deletion.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, cmd *validation.UpdateProductCommand, files []*multipart.FileHeader) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, asAppError(err, "could not retrieve product")
	}

	if cmd.Title != nil {
		product.Title = *cmd.Title
	}
	if cmd.Category != nil {
		product.Category = *cmd.Category
	}
	if cmd.Price != nil {
		product.Price = *cmd.Price
	}
	if cmd.Description != nil {
		product.Description = *cmd.Description
	}
	if cmd.Stock != nil {
		product.Stock = *cmd.Stock
	}

	if len(files) == 0 {
		if err := s.repo.Update(product); err != nil {
			return nil, asAppError(err, "failed to update product")
		}
		return product, nil
	}

	oldAssets := product.Images
	newAssets, err := s.uploadAll(ctx, files)
	if err != nil {
		return nil, err
	}

	product.Images = newAssets
	if err := s.repo.Update(product); err != nil {
		// The original record is untouched; only the now-unreferenced new
		// uploads need cleaning up.
		s.deleteAssets(ctx, assetIDs(newAssets))
		return nil, asAppError(err, "failed to update product")
	}

	if failed := s.deleteAssets(ctx, assetIDs(oldAssets)); len(failed) > 0 {
		log.Printf("product %s updated, but %d replaced asset(s) could not be deleted: %v", id, len(failed), failed)
	}
	return product, nil
}

// DeleteProduct removes the product record and best-effort deletes its
// remote assets. Asset deletion failures are reported in the returned
// DeleteReport but never block the record deletion: the durable record is
// what defines product existence.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (*DeleteReport, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, asAppError(err, "could not retrieve product")
	}

	ids := assetIDs(product.Images)
	failed := s.deleteAssets(ctx, ids)

	if err := s.repo.Delete(id); err != nil {
		return nil, asAppError(err, "failed to delete product")
	}

	report := &DeleteReport{
		AssetsRequested: len(ids),
		AssetsDeleted:   len(ids) - len(failed),
		FailedAssets:    failed,
	}
	return report, nil
}

// uploadAll fans the uploads out concurrently and joins them, fail-fast: the
// first failure cancels the in-flight uploads, every completed upload is
// deleted again, and a single aggregated error is returned.
func (s *ProductService) uploadAll(ctx context.Context, files []*multipart.FileHeader) ([]models.ImageAsset, error) {
	results := make([]*assetstore.Asset, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, fh := range files {
		i, fh := i, fh
		g.Go(func() error {
			f, err := fh.Open()
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", fh.Filename, err)
			}
			defer f.Close()

			opCtx, cancel := context.WithTimeout(gctx, s.opTimeout)
			defer cancel()

			asset, err := s.store.Upload(opCtx, f, fh.Filename)
			if err != nil {
				return fmt.Errorf("upload of %s failed: %w", fh.Filename, err)
			}
			results[i] = asset
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var succeeded []string
		for _, a := range results {
			if a != nil {
				succeeded = append(succeeded, a.AssetID)
			}
		}
		if failed := s.deleteAssets(ctx, succeeded); len(failed) > 0 {
			log.Printf("upload compensation left %d asset(s) behind: %v", len(failed), failed)
		}
		return nil, apperr.Wrap(apperr.KindUpload, "failed to upload product images", err)
	}

	assets := make([]models.ImageAsset, len(results))
	for i, a := range results {
		assets[i] = models.ImageAsset{
			URL:     a.URL,
			AssetID: a.AssetID,
			AltText: models.DefaultAltText,
		}
	}
	return assets, nil
}

// deleteAssets deletes the given asset IDs concurrently, best-effort: every
// deletion is attempted regardless of the others, each failure is logged,
// and the IDs that could not be deleted are returned.
func (s *ProductService) deleteAssets(ctx context.Context, ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	// Compensation must still run when the request context was canceled by
	// a failed sibling operation.
	ctx = context.WithoutCancel(ctx)

	var (
		mu     sync.Mutex
		failed []string
		wg     sync.WaitGroup
	)
	for _, id := range ids {
		wg.Add(1)
		go func(assetID string) {
			defer wg.Done()
			opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
			defer cancel()
			if err := s.store.Delete(opCtx, assetID); err != nil {
				log.Printf("Warning: failed to delete asset %s: %v", assetID, err)
				mu.Lock()
				failed = append(failed, assetID)
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()
	return failed
}

func assetIDs(assets []models.ImageAsset) []string {
	ids := make([]string, 0, len(assets))
	for _, a := range assets {
		ids = append(ids, a.AssetID)
	}
	return ids
}

// asAppError passes typed service errors through and wraps everything else
// as an internal error so infrastructure detail reaches logs, not clients.
func asAppError(err error, message string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	return apperr.Internal(message, err)
}
