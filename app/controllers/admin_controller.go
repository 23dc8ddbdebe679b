package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/cosanostra/blacklink/app/models"
	"github.com/cosanostra/blacklink/app/repository"
	"github.com/cosanostra/blacklink/internal/pkg/billing"
	"github.com/cosanostra/blacklink/internal/pkg/database"
	"github.com/cosanostra/blacklink/internal/pkg/entitlements"
	"github.com/cosanostra/blacklink/internal/pkg/imagemirror"
	"github.com/cosanostra/blacklink/internal/pkg/linkguardian"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

type adminCreateUserInput struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Plan     string `json:"plan" form:"plan"`
	Months   int    `json:"months" form:"months"`
	Password string `json:"password" form:"password"`
}

// HandleAdminCreateUser bootstraps an account, optionally already on a paid
// plan
func HandleAdminCreateUser(c *fiber.Ctx) error {
	var in adminCreateUserInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	username := models.NormalizeUsername(in.Username)
	if username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username is required"})
	}

	plan := strings.ToLower(strings.TrimSpace(in.Plan))
	if plan == "" {
		plan = string(entitlements.PlanFree)
	}
	if plan != string(entitlements.Normalize(plan)) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid plan, use free, pro or don"})
	}

	repo := repository.GetGlobalRepositories().User
	taken, err := repo.UsernameExists(username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup failed"})
	}
	if taken {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "user '" + username + "' already exists"})
	}

	user := models.NewUser(username, "")
	user.Email = strings.TrimSpace(in.Email)
	if in.Password != "" {
		hash, err := models.HashPassword(in.Password)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "password hashing failed"})
		}
		user.PasswordHash = hash
	}
	if entitlements.Get(plan).Sellable {
		months := in.Months
		if months < 1 {
			months = 1
		}
		if err := billing.ApplyPaidPlan(user, plan, months, time.Now().UTC()); err != nil {
			return respondBillingError(c, err)
		}
	}

	if err := repo.Create(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "create failed"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"plan":     user.Plan,
		"status":   "created",
	})
}

type adminIngestInput struct {
	Username   string `json:"username" form:"username"`
	URL        string `json:"url" form:"url"`
	Title      string `json:"title" form:"title"`
	ImageURL   string `json:"image_url" form:"image_url"`
	Price      string `json:"price" form:"price"`
	Tag        string `json:"tag" form:"tag"`
	IsFeatured bool   `json:"is_featured" form:"is_featured"`
}

// HandleAdminIngest imports a Mercado Livre listing as a product. Paid-plan
// capability: the owner needs CanIngest, featured additionally needs
// FeaturedAllowed, and the quota still applies. When the S3 mirror is
// configured the listing image is copied off Mercado Livre's CDN.
func HandleAdminIngest(c *fiber.Ctx) error {
	var in adminIngestInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if strings.TrimSpace(in.URL) == "" || strings.TrimSpace(in.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "url and title are required"})
	}
	if !linkguardian.IsMercadoLivreURL(in.URL) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "only Mercado Livre listings can be ingested"})
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	user, err := svc.SyncUser(c.Context(), in.Username)
	if err != nil {
		return respondBillingError(c, err)
	}

	if !entitlements.CanIngest(user.Plan) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "plan " + user.Plan + " does not include ingestion"})
	}
	if in.IsFeatured && !entitlements.FeaturedAllowed(user.Plan) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "featured products require a paid plan"})
	}

	repos := repository.GetGlobalRepositories()
	count, err := repos.Product.CountByUserID(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "count failed"})
	}
	if !entitlements.CanAddProduct(user.Plan, count) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "product limit reached for plan " + user.Plan,
			"limit": entitlements.MaxProducts(user.Plan),
		})
	}

	exists, err := repos.Product.ExistsByUserIDAndURL(user.ID, in.URL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup failed"})
	}
	if exists {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "listing already ingested"})
	}

	product := &models.Product{
		UserID:         user.ID,
		Title:          in.Title,
		URL:            strings.TrimSpace(in.URL),
		ImageURL:       in.ImageURL,
		SourceImageURL: in.ImageURL,
		Price:          in.Price,
		Tag:            in.Tag,
		IsActive:       true,
		IsFeatured:     in.IsFeatured,
	}
	if err := product.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if in.ImageURL != "" {
		if mirrored := mirrorImage(c.Context(), user.Username, in.ImageURL); mirrored != "" {
			product.ImageURL = mirrored
		}
	}

	if err := repos.Product.Create(product); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "create failed"})
	}

	invalidatePublicPage(user.Username)
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleAdminPayments lists reconciliation records for audit: all payments,
// or one user's history with ?username=
func HandleAdminPayments(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()

	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit > 200 {
		limit = 200
	}

	total, err := repos.PaymentEvent.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "count failed"})
	}

	events, err := repos.PaymentEvent.ListByUsername(c.Query("username"), offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "list failed"})
	}
	return c.JSON(fiber.Map{
		"total":  total,
		"events": events,
	})
}

// HandleAdminPaymentByID returns one reconciliation record by provider
// payment id
func HandleAdminPaymentByID(c *fiber.Ctx) error {
	event, err := repository.GetGlobalRepositories().
		PaymentEvent.GetByProviderPaymentID(models.PaymentProviderMercadoPago, c.Params("payment_id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "payment not found"})
	}
	return c.JSON(event)
}

// mirrorImage uploads the listing image to S3 when the mirror is enabled.
// Mirroring is best effort; failures fall back to the source URL.
func mirrorImage(ctx context.Context, username, sourceURL string) string {
	cfg, err := imagemirror.LoadConfig()
	if err != nil || !cfg.IsEnabled() {
		return ""
	}
	client, err := imagemirror.NewClient(cfg)
	if err != nil {
		log.Warnf("[Ingest] image mirror unavailable: %v", err)
		return ""
	}
	mirrored, err := client.MirrorProductImage(ctx, username, sourceURL)
	if err != nil {
		log.Warnf("[Ingest] image mirror failed for %s: %v", sourceURL, err)
		return ""
	}
	return mirrored
}
