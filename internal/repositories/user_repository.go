package repositories

import "luxe/internal/models"

// UserRepository defines the interface for user data access.
// Implementations return apperr.NotFound when the record is absent.
type UserRepository interface {
	Create(user *models.User) error
	Update(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	GetByVerificationToken(token string) (*models.User, error)
}
