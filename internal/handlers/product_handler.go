package handlers

import (
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"luxe/internal/services"
	"luxe/internal/validation"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validation.Validator
	rules    validation.ImageRules
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, validate *validation.Validator, rules validation.ImageRules) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validate,
		rules:    rules,
	}
}

// RegisterRoutes registers the product routes. Reads are public; mutations
// require an authenticated admin.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, authRequired, adminOnly fiber.Handler) {
	router.Get("/products", h.HandleGetProducts)
	router.Get("/products/:id", h.HandleGetProductByID)
	router.Post("/products", authRequired, adminOnly, h.HandleCreateProduct)
	router.Put("/products/:id", authRequired, adminOnly, h.HandleUpdateProduct)
	router.Delete("/products/:id", authRequired, adminOnly, h.HandleDeleteProduct)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Products retrieved successfully",
		"count":   len(products),
		"data":    products,
	})
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Product details retrieved successfully", product)
}

// HandleCreateProduct creates a new product from a multipart form carrying
// the product fields and 2-5 image file parts named "images".
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	form, files, err := h.parseProductForm(c)
	if err != nil {
		return respond(c, fiber.StatusBadRequest, "Invalid multipart form", nil)
	}

	cmd, err := h.validate.CreateProduct(form, files, h.rules)
	if err != nil {
		return respondError(c, err)
	}

	product, err := h.service.CreateProduct(c.UserContext(), cmd, files)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Product created successfully", product)
}

// HandleUpdateProduct applies a partial update; image files, when present,
// replace the whole image set.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	form, files, err := h.parseProductForm(c)
	if err != nil {
		return respond(c, fiber.StatusBadRequest, "Invalid multipart form", nil)
	}

	cmd, err := h.validate.UpdateProduct(form, files, h.rules)
	if err != nil {
		return respondError(c, err)
	}

	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), cmd, files)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Product updated successfully", product)
}

// HandleDeleteProduct deletes a product. Failed remote asset deletions are
// reported in the response data but do not fail the operation.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	report, err := h.service.DeleteProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Product deleted successfully", report)
}

// parseProductForm extracts the string fields and the image file parts from
// the multipart body.
func (h *ProductHandler) parseProductForm(c *fiber.Ctx) (validation.ProductForm, []*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return validation.ProductForm{}, nil, err
	}
	return validation.ProductForm{
		Title:       formValue(form, "title"),
		Category:    formValue(form, "category"),
		Price:       formValue(form, "price"),
		Description: formValue(form, "description"),
		Stock:       formValue(form, "stock"),
	}, form.File["images"], nil
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}
