package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"luxe/internal/apperr"
)

// respond writes the standard response envelope.
func respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	body := fiber.Map{
		"success": status < 400,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

// respondError maps a service error onto the envelope. Typed errors keep
// their message and status; wrapped causes and anything untyped are logged
// and surfaced as a generic internal error so provider detail never reaches
// the response body.
func respondError(c *fiber.Ctx, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.Err != nil {
			log.Printf("%s %s failed: %v", c.Method(), c.Path(), ae)
		}
		body := fiber.Map{
			"success": false,
			"message": ae.Message,
		}
		if len(ae.Fields) > 0 {
			body["errors"] = ae.Fields
		}
		return c.Status(ae.Status()).JSON(body)
	}

	log.Printf("%s %s failed: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Internal Server Error",
	})
}
