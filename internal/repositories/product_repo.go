package repositories

import (
	"luxe/internal/models"
)

// ProductRepository defines the interface for product data access.
// Implementations return apperr.NotFound when the record is absent.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
