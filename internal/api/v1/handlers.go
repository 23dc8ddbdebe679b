package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/cosanostra/blacklink/app/controllers"
)

// Pong is the health check response
type Pong struct {
	Ping string `json:"ping"`
}

// ServerInterface lists the public v1 operations
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
	GetPlans(c *fiber.Ctx) error
	GetUserProducts(c *fiber.Ctx) error
}

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetPlans returns the public plan catalog
func (s *APIServer) GetPlans(c *fiber.Ctx) error {
	return controllers.HandlePlanCatalog(c)
}

// GetUserProducts returns a user's active products as JSON
func (s *APIServer) GetUserProducts(c *fiber.Ctx) error {
	return controllers.HandleUserProductsJSON(c)
}

// RegisterHandlers attaches the v1 operations to the router group
func RegisterHandlers(router fiber.Router, s ServerInterface) {
	router.Get("/ping", s.GetPing)
	router.Get("/plans", s.GetPlans)
	router.Get("/blacklink/:username/products", s.GetUserProducts)
}
