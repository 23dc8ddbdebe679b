package controllers

import (
	"fmt"
	"strconv"

	"github.com/cosanostra/blacklink/app/models"
	"github.com/cosanostra/blacklink/internal/pkg/billing"
	"github.com/cosanostra/blacklink/internal/pkg/database"
	"github.com/cosanostra/blacklink/internal/pkg/session"
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
)

// HandleAuthLogin logs a user in by username. Accounts without a password
// hash authenticate by username alone; once a password is set it is required.
func HandleAuthLogin(c *fiber.Ctx) error {
	username := models.NormalizeUsername(c.FormValue("username"))
	if username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username is required"})
	}

	user, err := models.GetUserByUsername(database.GetDB(), username)
	if err != nil {
		// notice: do not leak whether the account exists
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login failed"})
	}

	if user.HasPassword() {
		if !models.CheckPasswordHash(c.FormValue("password"), user.PasswordHash) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login failed"})
		}
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("session error: %s", err)})
	}
	sess.Set(AUTH_KEY, "true")
	sess.Set(USER_ID, strconv.FormatUint(uint64(user.ID), 10))
	sess.Set(USER_NAME, user.Username)
	if err := sess.Save(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("session error: %s", err)})
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Bem-vindo de volta, " + user.Username,
	}
	flash.WithSuccess(c, fm)

	return c.JSON(fiber.Map{
		"username": user.Username,
		"plan":     user.Plan,
	})
}

// HandleAuthLogout clears the session
func HandleAuthLogout(c *fiber.Ctx) error {
	if err := session.DestroySession(c); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "logout failed"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleAuthMe returns the synced account state for a username
func HandleAuthMe(c *fiber.Ctx) error {
	username := c.Params("username")
	if !canManage(c, username) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	user, err := svc.SyncUser(c.Context(), username)
	if err != nil {
		return respondBillingError(c, err)
	}
	return c.JSON(user)
}
