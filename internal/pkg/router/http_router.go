package router

import (
	"github.com/cosanostra/blacklink/app/controllers"
	"github.com/cosanostra/blacklink/internal/pkg/constants"
	"github.com/cosanostra/blacklink/internal/pkg/middleware"
	"github.com/cosanostra/blacklink/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	h.registerPublicRoutes(app)
	h.registerPanelRoutes(app)
	h.registerAdminRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Landing page
	app.Get(constants.PublicRoute, controllers.HandleHomePage)

	// Auth
	app.Post("/auth/login", controllers.HandleAuthLogin)
	app.Post("/auth/logout", middleware.RequireSession, controllers.HandleAuthLogout)

	// Public link-in-bio page
	app.Get(constants.PublicPageRoute, controllers.HandlePublicPage)

	// Pricing catalog
	app.Get(constants.PlanCatalogRoute, controllers.HandlePlanCatalog)

	// Storefront catalog (order matters: /blacklink/out before /:username)
	app.Get("/blacklink/out/:id", controllers.HandleAffiliateRedirect)
	app.Get("/blacklink/:username/produtos", controllers.HandleStorePage)
	app.Get("/blacklink/:username/produto/:id", controllers.HandleProductDetailPage)
	app.Get("/api/blacklink/:username/products", controllers.HandleUserProductsJSON)

	// Profile reads
	app.Get("/blacklink", controllers.HandleBlackLinkList)
	app.Get("/blacklink/:username", controllers.HandleBlackLinkGet)

	// Self-serve registration
	app.Post("/blacklink", controllers.HandleBlackLinkCreate)

	// Billing: checkout + provider callbacks (no session, secret-verified
	// in the gateway)
	app.Post(constants.CheckoutRoute, controllers.HandleCheckout)
	app.Post("/payment/process", controllers.HandleProcessPayment)
	app.Post(constants.WebhookRoute, controllers.HandleMercadoPagoWebhook)
}

func (h HttpRouter) registerPanelRoutes(app *fiber.App) {
	// Owner-or-admin checks happen in the controllers so the admin token
	// works on these too.
	app.Get("/auth/me/:username", controllers.HandleAuthMe)
	app.Patch("/blacklink/:username", controllers.HandleBlackLinkUpdate)
	app.Delete("/blacklink/:username", controllers.HandleBlackLinkDelete)

	app.Get("/product/:username", controllers.HandleProductList)
	app.Post("/product/:username", controllers.HandleProductCreate)
	app.Patch("/product/edit/:id", controllers.HandleProductUpdate)
	app.Delete("/product/:id", controllers.HandleProductDelete)
}

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	admin := app.Group("/admin", middleware.RequireAdminToken)
	admin.Post("/create-user", controllers.HandleAdminCreateUser)
	admin.Post("/ingest", controllers.HandleAdminIngest)
	admin.Get("/payments", controllers.HandleAdminPayments)
	admin.Get("/payments/:payment_id", controllers.HandleAdminPaymentByID)

	// direct plan change, same token gate
	app.Post("/plan/upgrade/:username", middleware.RequireAdminToken, controllers.HandlePlanUpgrade)
}
