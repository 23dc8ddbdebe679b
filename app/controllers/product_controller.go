package controllers

import (
	"strconv"

	"github.com/cosanostra/blacklink/app/models"
	"github.com/cosanostra/blacklink/app/repository"
	"github.com/cosanostra/blacklink/internal/pkg/billing"
	"github.com/cosanostra/blacklink/internal/pkg/database"
	"github.com/cosanostra/blacklink/internal/pkg/entitlements"
	"github.com/cosanostra/blacklink/internal/pkg/linkguardian"
	"github.com/gofiber/fiber/v2"
)

type productInput struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	URL         string `json:"url" form:"url"`
	ImageURL    string `json:"image_url" form:"image_url"`
	Price       string `json:"price" form:"price"`
	Tag         string `json:"tag" form:"tag"`
	Badge       string `json:"badge" form:"badge"`
	CTALabel    string `json:"cta_label" form:"cta_label"`
	IsActive    *bool  `json:"is_active" form:"is_active"`
	IsFeatured  *bool  `json:"is_featured" form:"is_featured"`
}

// HandleProductList lists all products of a user (owner view, includes
// inactive ones)
func HandleProductList(c *fiber.Ctx) error {
	svc := billing.NewServiceFromDB(database.GetDB())
	user, err := svc.SyncUser(c.Context(), c.Params("username"))
	if err != nil {
		return respondBillingError(c, err)
	}

	products, err := repository.GetGlobalRepositories().Product.GetByUserID(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "list failed"})
	}
	return c.JSON(products)
}

// HandleProductCreate adds a product to a user's storefront. The plan quota
// is enforced after syncing so an expired pro cannot keep adding on the old
// limit.
func HandleProductCreate(c *fiber.Ctx) error {
	username := c.Params("username")
	if !canManage(c, username) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	user, err := svc.SyncUser(c.Context(), username)
	if err != nil {
		return respondBillingError(c, err)
	}

	repo := repository.GetGlobalRepositories().Product
	count, err := repo.CountByUserID(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "count failed"})
	}
	if !entitlements.CanAddProduct(user.Plan, count) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "product limit reached for plan " + user.Plan,
			"limit": entitlements.MaxProducts(user.Plan),
		})
	}

	var in productInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	product := &models.Product{
		UserID:      user.ID,
		Title:       in.Title,
		Description: in.Description,
		URL:         in.URL,
		ImageURL:    in.ImageURL,
		Price:       in.Price,
		Tag:         in.Tag,
		Badge:       in.Badge,
		CTALabel:    in.CTALabel,
		IsActive:    true,
	}
	if in.IsFeatured != nil && *in.IsFeatured {
		if !entitlements.FeaturedAllowed(user.Plan) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "featured products require a paid plan"})
		}
		product.IsFeatured = true
	}
	if err := product.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := repo.Create(product); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "create failed"})
	}

	invalidatePublicPage(user.Username)
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleProductUpdate patches a product
func HandleProductUpdate(c *fiber.Ctx) error {
	product, user, ok := loadOwnedProduct(c)
	if !ok {
		return nil
	}

	var in productInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	if in.Title != "" {
		product.Title = in.Title
	}
	if in.Description != "" {
		product.Description = in.Description
	}
	if in.URL != "" {
		// a new target resets the guardian verdict
		linkguardian.InvalidateVerdict(product.URL)
		product.URL = in.URL
		product.CheckedAt = nil
		product.LastCheckStatus = 0
	}
	if in.ImageURL != "" {
		product.ImageURL = in.ImageURL
	}
	if in.Price != "" {
		product.Price = in.Price
	}
	if in.Tag != "" {
		product.Tag = in.Tag
	}
	if in.Badge != "" {
		product.Badge = in.Badge
	}
	if in.CTALabel != "" {
		product.CTALabel = in.CTALabel
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		if *in.IsFeatured && !entitlements.FeaturedAllowed(user.Plan) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "featured products require a paid plan"})
		}
		product.IsFeatured = *in.IsFeatured
	}
	if err := product.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := repository.GetGlobalRepositories().Product.Update(product); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "update failed"})
	}

	invalidatePublicPage(user.Username)
	return c.JSON(product)
}

// HandleProductDelete removes a product
func HandleProductDelete(c *fiber.Ctx) error {
	product, user, ok := loadOwnedProduct(c)
	if !ok {
		return nil
	}

	if err := repository.GetGlobalRepositories().Product.Delete(product.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "delete failed"})
	}

	invalidatePublicPage(user.Username)
	return c.JSON(fiber.Map{"ok": true})
}

// loadOwnedProduct resolves :id, its owner, and the authorization check
// shared by the mutating product handlers. On failure the response has
// already been written and ok is false.
func loadOwnedProduct(c *fiber.Ctx) (*models.Product, *models.User, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
		return nil, nil, false
	}

	repos := repository.GetGlobalRepositories()
	product, err := repos.Product.GetByID(uint(id))
	if err != nil {
		_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
		return nil, nil, false
	}
	user, err := repos.User.GetByID(product.UserID)
	if err != nil {
		_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "owner not found"})
		return nil, nil, false
	}
	if !canManage(c, user.Username) {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		return nil, nil, false
	}
	return product, user, true
}
