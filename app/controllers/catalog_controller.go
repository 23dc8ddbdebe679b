package controllers

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cosanostra/blacklink/app/models"
	"github.com/cosanostra/blacklink/app/repository"
	"github.com/cosanostra/blacklink/internal/pkg/billing"
	"github.com/cosanostra/blacklink/internal/pkg/database"
	"github.com/cosanostra/blacklink/internal/pkg/linkguardian"
	"github.com/gofiber/fiber/v2"
)

// productView is the storefront shape of a product
type productView struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	ImageURL string `json:"image_url"`
	Link     string `json:"link"`
}

var badgePriceRe = regexp.MustCompile(`(\d{1,3}(?:[.\s]\d{3})*(?:[.,]\d{2})|\d+(?:[.,]\d{2})?)`)

// parsePriceFromBadge extracts a money-looking token out of the badge text,
// which is where imported listings carry their price.
func parsePriceFromBadge(badge string) string {
	m := badgePriceRe.FindString(strings.TrimSpace(badge))
	return strings.ReplaceAll(m, " ", "")
}

func toProductView(p *models.Product) productView {
	price := p.Price
	if price == "" {
		price = parsePriceFromBadge(p.Badge)
	}
	image := p.ImageURL
	if image == "" {
		image = p.SourceImageURL
	}
	return productView{
		ID:       p.ID,
		Name:     p.Title,
		Price:    price,
		ImageURL: image,
		Link:     p.URL,
	}
}

// HandleStorePage renders a user's product store with search and ordering
func HandleStorePage(c *fiber.Ctx) error {
	svc := billing.NewServiceFromDB(database.GetDB())
	user, err := svc.SyncUser(c.Context(), c.Params("username"))
	if err != nil {
		return respondBillingError(c, err)
	}

	products, err := repository.GetGlobalRepositories().Product.GetActiveByUserID(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "products lookup failed"})
	}

	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	orderBy := c.Query("order_by", "id")
	direction := c.Query("direction", "desc")

	views := make([]productView, 0, len(products))
	for i := range products {
		p := &products[i]
		if q != "" && !strings.Contains(strings.ToLower(p.Title), q) {
			continue
		}
		views = append(views, toProductView(p))
	}
	sortProductViews(views, orderBy, direction)

	return c.Render("user_products", fiber.Map{
		"Username":  user.Username,
		"Products":  views,
		"Query":     c.Query("q"),
		"OrderBy":   orderBy,
		"Direction": direction,
	})
}

// HandleProductDetailPage renders one listing with up to three other offers
// from the same store
func HandleProductDetailPage(c *fiber.Ctx) error {
	svc := billing.NewServiceFromDB(database.GetDB())
	user, err := svc.SyncUser(c.Context(), c.Params("username"))
	if err != nil {
		return respondBillingError(c, err)
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}

	repos := repository.GetGlobalRepositories()
	product, err := repos.Product.GetByID(uint(id))
	if err != nil || product.UserID != user.ID || !product.IsActive {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	if !linkguardian.IsLinkAlive(c.Context(), product.URL) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product unavailable"})
	}

	siblings, err := repos.Product.GetActiveByUserID(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "products lookup failed"})
	}
	others := make([]productView, 0, 3)
	for i := range siblings {
		if siblings[i].ID == product.ID {
			continue
		}
		others = append(others, toProductView(&siblings[i]))
		if len(others) == 3 {
			break
		}
	}

	return c.Render("product_detail", fiber.Map{
		"Username": user.Username,
		"Product":  toProductView(product),
		"Others":   others,
	})
}

// HandleAffiliateRedirect sends the visitor to the listing, 404ing dead
// links so affiliate clicks never land on a removed offer
func HandleAffiliateRedirect(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}

	product, err := repository.GetGlobalRepositories().Product.GetByID(uint(id))
	if err != nil || !product.IsActive || product.URL == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product unavailable"})
	}
	if !linkguardian.IsLinkAlive(c.Context(), product.URL) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product unavailable"})
	}

	return c.Redirect(product.URL, fiber.StatusFound)
}

// HandleUserProductsJSON is the JSON variant of the store page
func HandleUserProductsJSON(c *fiber.Ctx) error {
	svc := billing.NewServiceFromDB(database.GetDB())
	user, err := svc.SyncUser(c.Context(), c.Params("username"))
	if err != nil {
		return respondBillingError(c, err)
	}

	products, err := repository.GetGlobalRepositories().Product.GetActiveByUserID(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "products lookup failed"})
	}

	views := make([]productView, 0, len(products))
	for i := range products {
		views = append(views, toProductView(&products[i]))
	}
	return c.JSON(fiber.Map{
		"username": user.Username,
		"products": views,
	})
}

func sortProductViews(views []productView, orderBy, direction string) {
	less := func(i, j int) bool { return views[i].ID < views[j].ID }
	switch orderBy {
	case "title":
		less = func(i, j int) bool { return views[i].Name < views[j].Name }
	case "badge", "price":
		less = func(i, j int) bool { return views[i].Price < views[j].Price }
	}
	if direction == "desc" {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(views, less)
}
