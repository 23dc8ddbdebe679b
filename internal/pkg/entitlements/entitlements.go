package entitlements

import (
	"strings"
	"time"
)

type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
	PlanDon  Plan = "don"
)

// Limits are the technical entitlements granted by a plan.
// MaxProducts == nil means unlimited.
type Limits struct {
	MaxProducts     *int
	CanIngest       bool
	LinkGuardian    bool
	FeaturedAllowed bool
}

// Definition is a catalog entry. The catalog is defined once at package
// level and never mutated.
type Definition struct {
	ID           Plan
	Name         string
	PriceCents   int64 // BRL minor units, 0 for free
	DurationDays int   // length of one paid month, 0 for free
	Sellable     bool
	Badge        string
	Highlight    bool
	Limits       Limits
	Features     []string
}

func intPtr(v int) *int { return &v }

var catalog = map[Plan]Definition{
	PlanFree: {
		ID:           PlanFree,
		Name:         "FREE",
		PriceCents:   0,
		DurationDays: 0,
		Sellable:     false,
		Badge:        "Padrao",
		Limits: Limits{
			MaxProducts: intPtr(3),
		},
		Features: []string{
			"Ate 3 produtos na vitrine",
			"Links profissionais (basico)",
			"Sem ingestao automatica do Mercado Livre",
			"Suporte comunitario",
		},
	},
	PlanPro: {
		ID:           PlanPro,
		Name:         "PRO",
		PriceCents:   1990,
		DurationDays: 30,
		Sellable:     true,
		Badge:        "Mais vendido",
		Highlight:    true,
		Limits: Limits{
			MaxProducts:     intPtr(20),
			CanIngest:       true,
			LinkGuardian:    true,
			FeaturedAllowed: true,
		},
		Features: []string{
			"Ate 20 produtos na vitrine",
			"Ingestao automatica do Mercado Livre",
			"Link Guardian (monitoramento de links)",
			"Destaque em vitrine",
			"Suporte prioritario",
		},
	},
	PlanDon: {
		ID:           PlanDon,
		Name:         "DON",
		PriceCents:   4990,
		DurationDays: 30,
		Sellable:     true,
		Badge:        "Ultra Premium",
		Limits: Limits{
			MaxProducts:     nil,
			CanIngest:       true,
			LinkGuardian:    true,
			FeaturedAllowed: true,
		},
		Features: []string{
			"Produtos ilimitados na vitrine",
			"Ingestao automatica do Mercado Livre",
			"Link Guardian (monitoramento de links)",
			"Destaque maximo (homepage / vitrine premium)",
			"Suporte VIP",
		},
	},
}

// displayOrder is the fixed UI order for listings.
var displayOrder = []Plan{PlanFree, PlanPro, PlanDon}

// Normalize maps any input to a known plan id. Unknown or empty input
// falls back to free; this is an internal safety net, not validation.
func Normalize(plan string) Plan {
	switch Plan(strings.ToLower(strings.TrimSpace(plan))) {
	case PlanPro:
		return PlanPro
	case PlanDon:
		return PlanDon
	default:
		return PlanFree
	}
}

// Get returns the catalog entry for a plan id. Never fails.
func Get(plan string) Definition {
	return catalog[Normalize(plan)]
}

// ListOptions filters List output.
type ListOptions struct {
	SellableOnly bool
	IncludeFree  bool
}

// List returns plans in fixed display order free, pro, don.
func List(opts ListOptions) []Definition {
	out := make([]Definition, 0, len(displayOrder))
	for _, id := range displayOrder {
		def := catalog[id]
		if opts.SellableOnly && !def.Sellable {
			continue
		}
		if !opts.IncludeFree && def.ID == PlanFree {
			continue
		}
		out = append(out, def)
	}
	return out
}

// ComputeExpiry returns the paid-period end for a plan bought at start.
// Free never expires by payment (nil). Months below 1 are floored to 1;
// the [1,24] range check happens at the API boundary, not here.
func ComputeExpiry(start time.Time, months int, plan string) *time.Time {
	def := Get(plan)
	if def.ID == PlanFree {
		return nil
	}
	if months < 1 {
		months = 1
	}
	expiry := start.Add(time.Duration(def.DurationDays*months) * 24 * time.Hour)
	return &expiry
}

func LimitsFor(plan string) Limits { return Get(plan).Limits }

// MaxProducts returns the product quota for a plan; nil means unlimited.
func MaxProducts(plan string) *int { return Get(plan).Limits.MaxProducts }

// CanAddProduct reports whether a user on plan with current products may
// add one more.
func CanAddProduct(plan string, current int64) bool {
	limit := MaxProducts(plan)
	if limit == nil {
		return true
	}
	return current < int64(*limit)
}

func CanIngest(plan string) bool { return Get(plan).Limits.CanIngest }

func LinkGuardianEnabled(plan string) bool { return Get(plan).Limits.LinkGuardian }

func FeaturedAllowed(plan string) bool { return Get(plan).Limits.FeaturedAllowed }

// PublicView is the catalog shape exposed on the pricing endpoint.
type PublicView struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Badge        string   `json:"badge"`
	Highlight    bool     `json:"highlight"`
	PriceCents   int64    `json:"price_brl_cents"`
	PriceBRL     float64  `json:"price_brl"`
	DurationDays int      `json:"duration_days"`
	Sellable     bool     `json:"is_sellable"`
	MaxProducts  *int     `json:"max_products"`
	Features     []string `json:"features"`
}

func (d Definition) Public() PublicView {
	return PublicView{
		ID:           string(d.ID),
		Name:         d.Name,
		Badge:        d.Badge,
		Highlight:    d.Highlight,
		PriceCents:   d.PriceCents,
		PriceBRL:     float64(d.PriceCents) / 100.0,
		DurationDays: d.DurationDays,
		Sellable:     d.Sellable,
		MaxProducts:  d.Limits.MaxProducts,
		Features:     d.Features,
	}
}
