package middleware

import (
	"crypto/subtle"

	"github.com/cosanostra/blacklink/internal/pkg/env"
	"github.com/cosanostra/blacklink/internal/pkg/session"
	"github.com/gofiber/fiber/v2"
)

const sessionAuthKey = "authenticated"

// RequireSession ensures a logged-in session and returns JSON 401 otherwise.
func RequireSession(c *fiber.Ctx) error {
	if session.GetSessionValue(c, sessionAuthKey) != "true" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}

// RequireAdminToken guards the admin surface with the shared ADMIN_TOKEN
// header. An unset token disables admin routes entirely.
func RequireAdminToken(c *fiber.Ctx) error {
	token := env.GetEnv("ADMIN_TOKEN", "")
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "admin surface disabled"})
	}
	if subtle.ConstantTimeCompare([]byte(c.Get("X-Admin-Token")), []byte(token)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "admin token required"})
	}
	return c.Next()
}
