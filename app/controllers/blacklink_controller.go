package controllers

import (
	"encoding/json"
	"time"

	"github.com/cosanostra/blacklink/app/models"
	"github.com/cosanostra/blacklink/app/repository"
	"github.com/cosanostra/blacklink/internal/pkg/billing"
	"github.com/cosanostra/blacklink/internal/pkg/cache"
	"github.com/cosanostra/blacklink/internal/pkg/database"
	"github.com/gofiber/fiber/v2"
)

const publicPageCacheTTL = 60 * time.Second

type blackLinkInput struct {
	Username        string `json:"username" form:"username"`
	DisplayName     string `json:"display_name" form:"display_name"`
	Bio             string `json:"bio" form:"bio"`
	Password        string `json:"password" form:"password"`
	AvatarURL       string `json:"avatar_url" form:"avatar_url"`
	MainCTAURL      string `json:"main_cta_url" form:"main_cta_url"`
	MainCTALabel    string `json:"main_cta_label" form:"main_cta_label"`
	MainCTASubtitle string `json:"main_cta_subtitle" form:"main_cta_subtitle"`
	InstagramURL    string `json:"instagram_url" form:"instagram_url"`
	TiktokURL       string `json:"tiktok_url" form:"tiktok_url"`
	YoutubeURL      string `json:"youtube_url" form:"youtube_url"`
	TelegramURL     string `json:"telegram_url" form:"telegram_url"`
	LinkedinURL     string `json:"linkedin_url" form:"linkedin_url"`
	GithubURL       string `json:"github_url" form:"github_url"`
	FacebookURL     string `json:"facebook_url" form:"facebook_url"`
	KwaiURL         string `json:"kwai_url" form:"kwai_url"`
	MercadoLivreURL string `json:"mercadolivre_url" form:"mercadolivre_url"`

	// admin-only, ignored for regular owners
	PlanStatus string `json:"plan_status" form:"plan_status"`
}

// HandleBlackLinkCreate registers a new storefront profile
func HandleBlackLinkCreate(c *fiber.Ctx) error {
	var in blackLinkInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	repo := repository.GetGlobalRepositories().User
	username := models.NormalizeUsername(in.Username)
	if username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username is required"})
	}

	taken, err := repo.UsernameExists(username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup failed"})
	}
	if taken {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "username already taken"})
	}

	user := models.NewUser(username, in.DisplayName)
	applyProfileInput(user, &in)
	if in.Password != "" {
		hash, err := models.HashPassword(in.Password)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "password hashing failed"})
		}
		user.PasswordHash = hash
	}
	if err := user.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := repo.Create(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "create failed"})
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleBlackLinkList lists profiles (paginated)
func HandleBlackLinkList(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit > 200 {
		limit = 200
	}

	repo := repository.GetGlobalRepositories().User
	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "count failed"})
	}
	users, err := repo.List(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "list failed"})
	}
	return c.JSON(fiber.Map{
		"total": total,
		"users": users,
	})
}

// HandleBlackLinkGet returns one profile, plan synced first
func HandleBlackLinkGet(c *fiber.Ctx) error {
	svc := billing.NewServiceFromDB(database.GetDB())
	user, err := svc.SyncUser(c.Context(), c.Params("username"))
	if err != nil {
		return respondBillingError(c, err)
	}
	return c.JSON(user)
}

// HandleBlackLinkUpdate patches profile fields. Plan fields are never
// writable here.
func HandleBlackLinkUpdate(c *fiber.Ctx) error {
	username := c.Params("username")
	if !canManage(c, username) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	user, err := svc.SyncUser(c.Context(), username)
	if err != nil {
		return respondBillingError(c, err)
	}

	var in blackLinkInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	applyProfileInput(user, &in)
	if in.DisplayName != "" {
		user.DisplayName = in.DisplayName
	}
	if in.Password != "" {
		hash, err := models.HashPassword(in.Password)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "password hashing failed"})
		}
		user.PasswordHash = hash
	}
	// cancellation is an admin action; plan and expiry stay untouched here
	if in.PlanStatus == models.PlanStatusCanceled && isAdminRequest(c) {
		user.PlanStatus = models.PlanStatusCanceled
	}
	if err := user.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := repository.GetGlobalRepositories().User.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "update failed"})
	}

	invalidatePublicPage(user.Username)
	return c.JSON(user)
}

// HandleBlackLinkDelete removes a profile and its products
func HandleBlackLinkDelete(c *fiber.Ctx) error {
	username := c.Params("username")
	if !canManage(c, username) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
	}

	repo := repository.GetGlobalRepositories().User
	user, err := repo.GetByUsername(username)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	if err := repo.Delete(user.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "delete failed"})
	}

	invalidatePublicPage(user.Username)
	return c.JSON(fiber.Map{"ok": true})
}

// publicPageView is the cached payload behind /u/:username. It survives a
// JSON round-trip through redis, so templates address struct fields, never
// map keys.
type publicPageView struct {
	User     *models.User     `json:"user"`
	Products []models.Product `json:"products"`
}

// HandlePublicPage renders a user's public link-in-bio page. The view data
// is cached briefly in redis since this page takes all public traffic.
func HandlePublicPage(c *fiber.Ctx) error {
	username := models.NormalizeUsername(c.Params("username"))
	cacheKey := "publicpage:" + username

	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		var view publicPageView
		if err := json.Unmarshal([]byte(cached), &view); err == nil && view.User != nil {
			return c.Render("blacklink", view)
		}
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	user, err := svc.SyncUser(c.Context(), username)
	if err != nil {
		return respondBillingError(c, err)
	}

	products, err := repository.GetGlobalRepositories().Product.GetActiveByUserID(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "products lookup failed"})
	}

	view := publicPageView{User: user, Products: products}
	if encoded, err := json.Marshal(view); err == nil {
		_ = cache.Set(cacheKey, string(encoded), publicPageCacheTTL)
	}
	return c.Render("blacklink", view)
}

func invalidatePublicPage(username string) {
	_ = cache.Delete("publicpage:" + models.NormalizeUsername(username))
}

func applyProfileInput(user *models.User, in *blackLinkInput) {
	if in.Bio != "" {
		user.Bio = in.Bio
	}
	if in.AvatarURL != "" {
		user.AvatarURL = in.AvatarURL
	}
	if in.MainCTAURL != "" {
		user.MainCTAURL = in.MainCTAURL
	}
	if in.MainCTALabel != "" {
		user.MainCTALabel = in.MainCTALabel
	}
	if in.MainCTASubtitle != "" {
		user.MainCTASubtitle = in.MainCTASubtitle
	}
	if in.InstagramURL != "" {
		user.InstagramURL = in.InstagramURL
	}
	if in.TiktokURL != "" {
		user.TiktokURL = in.TiktokURL
	}
	if in.YoutubeURL != "" {
		user.YoutubeURL = in.YoutubeURL
	}
	if in.TelegramURL != "" {
		user.TelegramURL = in.TelegramURL
	}
	if in.LinkedinURL != "" {
		user.LinkedinURL = in.LinkedinURL
	}
	if in.GithubURL != "" {
		user.GithubURL = in.GithubURL
	}
	if in.FacebookURL != "" {
		user.FacebookURL = in.FacebookURL
	}
	if in.KwaiURL != "" {
		user.KwaiURL = in.KwaiURL
	}
	if in.MercadoLivreURL != "" {
		user.MercadoLivreURL = in.MercadoLivreURL
	}
}
