package controllers

import (
	"strings"

	"github.com/cosanostra/blacklink/app/models"
	"github.com/cosanostra/blacklink/app/repository"
	"github.com/gofiber/fiber/v2"
)

const (
	homeSellerLimit  = 12
	homeProductLimit = 8
)

// HandleHomePage renders the landing page: featured paid-plan sellers plus a
// featured and a recent product strip. An optional ?q= searches sellers by
// username or display name instead.
func HandleHomePage(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()

	var (
		sellers []models.User
		err     error
	)
	q := strings.TrimSpace(c.Query("q"))
	if q != "" {
		sellers, err = repos.User.Search(q)
	} else {
		sellers, err = repos.User.GetFeaturedSellers(homeSellerLimit)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "seller lookup failed"})
	}

	featured, err := repos.Product.GetFeatured(homeProductLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "products lookup failed"})
	}
	recent, err := repos.Product.GetRecent(homeProductLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "products lookup failed"})
	}

	featuredViews := make([]productView, 0, len(featured))
	for i := range featured {
		featuredViews = append(featuredViews, toProductView(&featured[i]))
	}
	recentViews := make([]productView, 0, len(recent))
	for i := range recent {
		recentViews = append(recentViews, toProductView(&recent[i]))
	}

	return c.Render("home", fiber.Map{
		"Query":    q,
		"Sellers":  sellers,
		"Featured": featuredViews,
		"Recent":   recentViews,
	})
}
