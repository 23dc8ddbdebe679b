package billing

import (
	"strings"
	"time"

	"github.com/cosanostra/blacklink/internal/pkg/env"
)

// Config carries everything the billing service and gateway need. It is
// assembled once at construction time; the engine never reads ambient state.
type Config struct {
	AccessToken   string
	WebhookSecret string

	// TrustWebhookPayload switches the gateway to the non-production
	// strategy that reads status/external_reference from the payload
	// itself instead of querying Mercado Pago. Off by default.
	TrustWebhookPayload bool

	NotificationURL string
	SuccessURL      string
	FailureURL      string
	PendingURL      string
}

// ConfigFromEnv builds the billing config from environment variables,
// deriving callback URLs from APP_BASE_URL when not set explicitly.
func ConfigFromEnv() Config {
	base := strings.TrimRight(env.GetEnv("APP_BASE_URL", "http://localhost"), "/")
	joined := func(override, path string) string {
		if v := strings.TrimSpace(override); v != "" {
			return v
		}
		return base + path
	}

	return Config{
		AccessToken:         strings.TrimSpace(env.GetEnv("MP_ACCESS_TOKEN", "")),
		WebhookSecret:       strings.TrimSpace(env.GetEnv("MP_WEBHOOK_SECRET", "")),
		TrustWebhookPayload: env.GetEnv("MP_TRUST_WEBHOOK_PAYLOAD", "false") == "true",
		NotificationURL:     joined(env.GetEnv("MP_WEBHOOK_URL", ""), "/webhook/mercadopago"),
		SuccessURL:          joined(env.GetEnv("MP_SUCCESS_URL", ""), "/payment/success"),
		FailureURL:          joined(env.GetEnv("MP_FAILURE_URL", ""), "/payment/failure"),
		PendingURL:          joined(env.GetEnv("MP_PENDING_URL", ""), "/payment/pending"),
	}
}

// Webhook result statuses. Ignored and already-processed are successful
// acknowledgments, not errors.
const (
	StatusProcessed        = "processed"
	StatusIgnored          = "ignored"
	StatusAlreadyProcessed = "already_processed"
)

// WebhookResult is the outcome of one notification delivery.
type WebhookResult struct {
	Status    string     `json:"status"`
	Reason    string     `json:"reason,omitempty"`
	PaymentID string     `json:"payment_id,omitempty"`
	Username  string     `json:"username,omitempty"`
	Plan      string     `json:"plan,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CheckoutInput describes one preference-creation request.
type CheckoutInput struct {
	Username string
	Plan     string
	Months   int
	Email    string
}

// CheckoutResult carries the provider redirect data back to the caller.
type CheckoutResult struct {
	PreferenceID      string `json:"preference_id"`
	InitPoint         string `json:"init_point"`
	SandboxInitPoint  string `json:"sandbox_init_point"`
	ExternalReference string `json:"external_reference"`
	NotificationURL   string `json:"notification_url"`
}

// ManualPaymentInput is the admin/fallback processing request. PaymentID is
// mandatory when the gateway runs in verified mode.
type ManualPaymentInput struct {
	Username  string
	Plan      string
	Months    int
	PaymentID string
}
