package controllers

import (
	"github.com/cosanostra/blacklink/internal/pkg/billing"
	"github.com/cosanostra/blacklink/internal/pkg/database"
	"github.com/gofiber/fiber/v2"
)

func newGateway() *billing.Gateway {
	return billing.NewGatewayFromDB(database.GetDB(), billing.ConfigFromEnv())
}

type checkoutInput struct {
	Username string `json:"username" form:"username"`
	Plan     string `json:"plan" form:"plan"`
	Months   int    `json:"months" form:"months"`
	Email    string `json:"email" form:"email"`
}

// HandleCheckout creates a Mercado Pago preference for a plan purchase and
// returns the redirect URL
func HandleCheckout(c *fiber.Ctx) error {
	var in checkoutInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if in.Months == 0 {
		in.Months = 1
	}

	result, err := newGateway().CreateCheckout(c.Context(), billing.CheckoutInput{
		Username: in.Username,
		Plan:     in.Plan,
		Months:   in.Months,
		Email:    in.Email,
	})
	if err != nil {
		return respondBillingError(c, err)
	}
	return c.JSON(result)
}

type processPaymentInput struct {
	Username  string `json:"username" form:"username"`
	Plan      string `json:"plan" form:"plan"`
	Months    int    `json:"months" form:"months"`
	PaymentID string `json:"payment_id" form:"payment_id"`
}

// HandleProcessPayment is the manual fallback when a webhook delivery was
// lost: the operator submits the payment id and the gateway verifies it
// against the provider before applying.
func HandleProcessPayment(c *fiber.Ctx) error {
	var in processPaymentInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if in.Months == 0 {
		in.Months = 1
	}

	user, err := newGateway().ProcessManualPayment(c.Context(), billing.ManualPaymentInput{
		Username:  in.Username,
		Plan:      in.Plan,
		Months:    in.Months,
		PaymentID: in.PaymentID,
	}, c.Get("X-Webhook-Secret"))
	if err != nil {
		return respondBillingError(c, err)
	}

	invalidatePublicPage(user.Username)
	return c.JSON(user)
}

// HandleMercadoPagoWebhook receives payment notifications. Non-2xx makes
// the provider redeliver, so only upstream trouble returns one; ignored and
// duplicate events acknowledge with 200.
func HandleMercadoPagoWebhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.BodyRaw()...)

	result, err := newGateway().ProcessNotification(c.Context(), payload, c.Get("X-Webhook-Secret"))
	if err != nil {
		return respondBillingError(c, err)
	}
	if result.Status == billing.StatusProcessed {
		invalidatePublicPage(result.Username)
	}
	return c.JSON(result)
}
