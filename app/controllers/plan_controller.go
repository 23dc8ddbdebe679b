package controllers

import (
	"github.com/cosanostra/blacklink/internal/pkg/billing"
	"github.com/cosanostra/blacklink/internal/pkg/database"
	"github.com/cosanostra/blacklink/internal/pkg/entitlements"
	"github.com/gofiber/fiber/v2"
)

// HandlePlanCatalog returns the public pricing catalog in fixed display
// order
func HandlePlanCatalog(c *fiber.Ctx) error {
	defs := entitlements.List(entitlements.ListOptions{IncludeFree: true})
	out := make([]entitlements.PublicView, 0, len(defs))
	for _, def := range defs {
		out = append(out, def.Public())
	}
	return c.JSON(fiber.Map{"plans": out})
}

type planUpgradeInput struct {
	Plan   string `json:"plan" form:"plan"`
	Months int    `json:"months" form:"months"`
}

// HandlePlanUpgrade applies a direct upgrade without a payment. Admin-only;
// the paid path goes through checkout + webhook.
func HandlePlanUpgrade(c *fiber.Ctx) error {
	if !isAdminRequest(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "admin token required"})
	}

	var in planUpgradeInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if in.Months < 1 {
		in.Months = 1
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	user, err := svc.UpgradeUser(c.Context(), c.Params("username"), in.Plan, in.Months)
	if err != nil {
		return respondBillingError(c, err)
	}

	invalidatePublicPage(user.Username)
	return c.JSON(user)
}
