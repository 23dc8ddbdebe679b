package constants

// Static route constants
const (
	PublicRoute      = "/"
	PublicPageRoute  = "/u/:username"
	WebhookRoute     = "/webhook/mercadopago"
	CheckoutRoute    = "/payment/checkout"
	PlanCatalogRoute = "/plan"
	DocsRoute        = "/docs"
)
