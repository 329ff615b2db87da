// Package validation normalizes untrusted request input into typed commands
// before any side effect happens. It is the single source of truth for the
// product field bounds and the image-set rules.
package validation

import (
	"fmt"
	"math"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"luxe/internal/apperr"
	"luxe/internal/models"
)

// allowedImageTypes is the closed set of accepted upload MIME types.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/avif": true,
}

// ImageRules bounds the number of image files per product.
type ImageRules struct {
	Min int
	Max int
}

// ProductForm carries the raw string fields of a multipart product request.
type ProductForm struct {
	Title       string
	Category    string
	Price       string
	Description string
	Stock       string
}

// CreateProductCommand is a fully validated product creation request.
type CreateProductCommand struct {
	Title       string  `validate:"required,max=120"`
	Category    string  `validate:"required,category"`
	Price       float64 `validate:"gte=0.99,lte=9999.99"`
	Description string  `validate:"required,min=20,max=2000"`
	Stock       int     `validate:"gte=0"`
}

// UpdateProductCommand is a validated partial update. Nil fields were absent
// from the request and must be left untouched.
type UpdateProductCommand struct {
	Title       *string  `validate:"omitempty,max=120"`
	Category    *string  `validate:"omitempty,category"`
	Price       *float64 `validate:"omitempty,gte=0.99,lte=9999.99"`
	Description *string  `validate:"omitempty,min=20,max=2000"`
	Stock       *int     `validate:"omitempty,gte=0"`
}

// RegisterCommand is a validated registration request.
type RegisterCommand struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginCommand is a validated login request.
type LoginCommand struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Validator validates and normalizes inbound requests.
type Validator struct {
	validate *validator.Validate
	maxStock int
}

// New creates a Validator. maxStock is the configured upper stock bound.
func New(maxStock int) *Validator {
	v := validator.New()
	// "category" checks membership in the closed category set; the set lives
	// in models so there is exactly one copy of it.
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.IsValidCategory(fl.Field().String())
	})
	return &Validator{validate: v, maxStock: maxStock}
}

// CreateProduct validates a full product creation request, including its
// image files, and returns a typed command or a validation error with
// field-level detail.
func (v *Validator) CreateProduct(form ProductForm, files []*multipart.FileHeader, rules ImageRules) (*CreateProductCommand, error) {
	fields := make(map[string]string)

	cmd := &CreateProductCommand{
		Title:       strings.TrimSpace(form.Title),
		Category:    strings.TrimSpace(form.Category),
		Description: strings.TrimSpace(form.Description),
	}

	if form.Price == "" {
		fields["price"] = "price is required"
	} else if price, err := strconv.ParseFloat(form.Price, 64); err != nil {
		fields["price"] = "price must be a number"
	} else {
		cmd.Price = roundPrice(price)
	}

	if form.Stock == "" {
		fields["stock"] = "stock is required"
	} else if stock, err := strconv.Atoi(form.Stock); err != nil {
		fields["stock"] = "stock must be an integer"
	} else {
		cmd.Stock = stock
	}
	if cmd.Stock > v.maxStock {
		fields["stock"] = fmt.Sprintf("stock cannot exceed %d units", v.maxStock)
	}

	v.collectStructErrors(cmd, fields)
	checkImages(files, rules, true, fields)

	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}
	return cmd, nil
}

// UpdateProduct validates a partial update. Empty form fields are treated as
// absent. A nil/empty file set means the existing images are kept; a
// non-empty one must satisfy the image rules in full because it replaces the
// whole set.
func (v *Validator) UpdateProduct(form ProductForm, files []*multipart.FileHeader, rules ImageRules) (*UpdateProductCommand, error) {
	fields := make(map[string]string)
	cmd := &UpdateProductCommand{}

	if s := strings.TrimSpace(form.Title); s != "" {
		cmd.Title = &s
	}
	if s := strings.TrimSpace(form.Category); s != "" {
		cmd.Category = &s
	}
	if s := strings.TrimSpace(form.Description); s != "" {
		cmd.Description = &s
	}
	if form.Price != "" {
		if price, err := strconv.ParseFloat(form.Price, 64); err != nil {
			fields["price"] = "price must be a number"
		} else {
			rounded := roundPrice(price)
			cmd.Price = &rounded
		}
	}
	if form.Stock != "" {
		if stock, err := strconv.Atoi(form.Stock); err != nil {
			fields["stock"] = "stock must be an integer"
		} else if stock > v.maxStock {
			fields["stock"] = fmt.Sprintf("stock cannot exceed %d units", v.maxStock)
		} else {
			cmd.Stock = &stock
		}
	}

	v.collectStructErrors(cmd, fields)
	if len(files) > 0 {
		checkImages(files, rules, true, fields)
	}

	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}
	return cmd, nil
}

// Register validates a registration request.
func (v *Validator) Register(cmd *RegisterCommand) error {
	fields := make(map[string]string)
	v.collectStructErrors(cmd, fields)
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

// Login validates a login request.
func (v *Validator) Login(cmd *LoginCommand) error {
	fields := make(map[string]string)
	v.collectStructErrors(cmd, fields)
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

func (v *Validator) collectStructErrors(s interface{}, fields map[string]string) {
	err := v.validate.Struct(s)
	if err == nil {
		return
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		fields["_"] = err.Error()
		return
	}
	for _, e := range validationErrors {
		name := strings.ToLower(e.Field())
		if _, taken := fields[name]; taken {
			continue
		}
		fields[name] = fmt.Sprintf("field '%s' failed on the '%s' rule", name, e.Tag())
	}
}

// checkImages enforces the count bounds and the allowed MIME set.
func checkImages(files []*multipart.FileHeader, rules ImageRules, required bool, fields map[string]string) {
	if len(files) == 0 {
		if required {
			fields["images"] = fmt.Sprintf("between %d and %d product images are required", rules.Min, rules.Max)
		}
		return
	}
	if len(files) < rules.Min || len(files) > rules.Max {
		fields["images"] = fmt.Sprintf("between %d and %d product images are required, got %d", rules.Min, rules.Max, len(files))
		return
	}
	for _, fh := range files {
		contentType := fh.Header.Get("Content-Type")
		if !allowedImageTypes[contentType] {
			fields["images"] = fmt.Sprintf("file '%s': only image files (jpeg, jpg, png, webp, gif, avif) are allowed", fh.Filename)
			return
		}
	}
}

// roundPrice stores prices with exactly two fractional digits.
func roundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}
