package models

import "time"

// Roles a user account can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account in the store.
type User struct {
	ID       string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"uniqueIndex;type:varchar(255)"`
	Password string `json:"-" gorm:"type:varchar(255)"` // bcrypt hash, never serialized
	Role     string `json:"role" gorm:"type:varchar(16);default:user"`

	// IsVerified stays false until the single-use verification token is
	// redeemed; the token is cleared on success so it cannot be replayed.
	IsVerified        bool   `json:"is_verified" gorm:"default:false"`
	VerificationToken string `json:"-" gorm:"type:varchar(64)"`

	PurchasedProducts []string  `json:"purchased_products,omitempty" gorm:"serializer:json"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
