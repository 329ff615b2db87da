package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"luxe/internal/middleware"
	"luxe/internal/services"
	"luxe/internal/validation"
)

// AuthHandler handles HTTP requests for accounts and authentication.
type AuthHandler struct {
	accounts *services.AccountService
	validate *validation.Validator
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts *services.AccountService, validate *validation.Validator) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		validate: validate,
	}
}

// RegisterRoutes registers the account routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/resend-verification", h.HandleResendVerification)
	authRoutes.Get("/profile", authRequired, h.HandleProfile)

	router.Get("/verify-email/:token", h.HandleVerifyEmail)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var cmd validation.RegisterCommand
	if err := c.BodyParser(&cmd); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := h.validate.Register(&cmd); err != nil {
		return respondError(c, err)
	}

	user, err := h.accounts.Register(&cmd)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "User created successfully", user)
}

// HandleLogin handles user login and issues a session token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var cmd validation.LoginCommand
	if err := c.BodyParser(&cmd); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := h.validate.Login(&cmd); err != nil {
		return respondError(c, err)
	}

	token, user, err := h.accounts.Login(&cmd)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "User logged in successfully",
		"data":    user,
		"token":   token,
	})
}

// HandleResendVerification re-sends the verification email for an
// unverified account.
func (h *AuthHandler) HandleResendVerification(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return respond(c, fiber.StatusBadRequest, "Email is required", nil)
	}

	if err := h.accounts.ResendVerification(req.Email); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Verification email sent", nil)
}

// HandleVerifyEmail redeems a verification token from the emailed link.
func (h *AuthHandler) HandleVerifyEmail(c *fiber.Ctx) error {
	token, _, err := h.accounts.VerifyEmail(c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Email verified successfully",
		"token":   token,
	})
}

// HandleProfile returns the authenticated caller's account.
func (h *AuthHandler) HandleProfile(c *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return respond(c, fiber.StatusUnauthorized, "Authentication required", nil)
	}

	user, err := h.accounts.Profile(claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Profile retrieved successfully", user)
}
