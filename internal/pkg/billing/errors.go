package billing

import "errors"

// Error kinds returned by the billing service and gateway. Controllers map
// these to transport statuses with errors.Is; nothing in this package decides
// HTTP codes.
var (
	// ErrValidation covers malformed payloads, bad reference tokens and
	// out-of-range months. Final, never retried.
	ErrValidation = errors.New("invalid payment data")

	// ErrNotFound means the referenced user does not exist. The gateway
	// never creates users.
	ErrNotFound = errors.New("user not found")

	// ErrUnauthorized means the shared webhook secret did not match.
	ErrUnauthorized = errors.New("webhook not authorized")

	// ErrUpstream means Mercado Pago could not be reached or timed out.
	// The provider redelivers webhooks on non-2xx, so this is the one
	// category where retry is the caller's responsibility.
	ErrUpstream = errors.New("payment provider unavailable")

	// ErrNotConfigured means the access token is missing while a provider
	// lookup was required.
	ErrNotConfigured = errors.New("payment provider not configured")

	// ErrPlanNotSellable flags an attempt to apply free or an unknown plan
	// as a paid plan. Integration error, fails loudly.
	ErrPlanNotSellable = errors.New("plan is not sellable")
)
