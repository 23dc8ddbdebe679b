package controllers

import (
	"crypto/subtle"
	"errors"

	"github.com/cosanostra/blacklink/app/models"
	"github.com/cosanostra/blacklink/internal/pkg/billing"
	"github.com/cosanostra/blacklink/internal/pkg/env"
	"github.com/cosanostra/blacklink/internal/pkg/session"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	AUTH_KEY  string = "authenticated"
	USER_ID   string = "user_id"
	USER_NAME string = "username"
)

func isLoggedIn(c *fiber.Ctx) bool {
	return session.GetSessionValue(c, AUTH_KEY) == "true"
}

// SessionUsername gets the logged-in username from the session
func SessionUsername(c *fiber.Ctx) string {
	return session.GetSessionValue(c, USER_NAME)
}

// isAdminRequest checks the shared admin token header. An empty ADMIN_TOKEN
// disables the admin surface entirely.
func isAdminRequest(c *fiber.Ctx) bool {
	token := env.GetEnv("ADMIN_TOKEN", "")
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Get("X-Admin-Token")), []byte(token)) == 1
}

// canManage reports whether the request may mutate the given user's data:
// either the owner's session or an admin token.
func canManage(c *fiber.Ctx, username string) bool {
	if isAdminRequest(c) {
		return true
	}
	return isLoggedIn(c) && SessionUsername(c) == models.NormalizeUsername(username)
}

// respondBillingError maps billing error kinds onto transport statuses.
// Upstream failures return 502 so the provider redelivers the webhook.
func respondBillingError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, billing.ErrValidation), errors.Is(err, billing.ErrPlanNotSellable):
		status = fiber.StatusBadRequest
	case errors.Is(err, billing.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, billing.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, billing.ErrUpstream), errors.Is(err, billing.ErrNotConfigured):
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
