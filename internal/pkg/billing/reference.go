package billing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cosanostra/blacklink/internal/pkg/entitlements"
)

// The external reference is the wire contract between checkout and webhook:
// "<username>:<plan>:<months>". It is generated by CreateCheckout, stored by
// Mercado Pago on the payment, and parsed back by ProcessNotification. The
// two sides must round-trip bit-exact; usernames therefore must not contain
// colons.

const (
	minMonths = 1
	maxMonths = 24
)

// Reference is a decoded external reference token.
type Reference struct {
	Username string
	Plan     entitlements.Plan
	Months   int
}

// FormatReference encodes the token. Callers are expected to pass an
// already-validated sellable plan and months in range; this only guards the
// colon constraint on the identifier.
func FormatReference(username string, plan entitlements.Plan, months int) (string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return "", fmt.Errorf("%w: username is required", ErrValidation)
	}
	if strings.Contains(username, ":") {
		return "", fmt.Errorf("%w: username must not contain ':'", ErrValidation)
	}
	return fmt.Sprintf("%s:%s:%d", username, plan, months), nil
}

// ParseReference decodes and validates a token. Tokens are rejected, never
// guessed: exactly two colons, a sellable plan (free and catalog misses both
// fail), months in [1,24], non-empty username. The username is lowercased
// here, once, as the normalization boundary.
func ParseReference(s string) (*Reference, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: malformed external reference %q", ErrValidation, s)
	}

	username := strings.ToLower(strings.TrimSpace(parts[0]))
	if username == "" {
		return nil, fmt.Errorf("%w: external reference has empty username", ErrValidation)
	}

	plan := entitlements.Normalize(parts[1])
	if !entitlements.Get(string(plan)).Sellable {
		return nil, fmt.Errorf("%w: plan %q in external reference", ErrPlanNotSellable, parts[1])
	}

	months, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return nil, fmt.Errorf("%w: months %q is not an integer", ErrValidation, parts[2])
	}
	if months < minMonths || months > maxMonths {
		return nil, fmt.Errorf("%w: months %d out of range [%d,%d]", ErrValidation, months, minMonths, maxMonths)
	}

	return &Reference{Username: username, Plan: plan, Months: months}, nil
}
