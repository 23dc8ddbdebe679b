package entitlements

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want Plan
	}{
		{in: "free", want: PlanFree},
		{in: "pro", want: PlanPro},
		{in: "don", want: PlanDon},
		{in: "DON", want: PlanDon},
		{in: " pro ", want: PlanPro},
		{in: "", want: PlanFree},
		{in: "bogus", want: PlanFree},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetUnknownFallsBackToFree(t *testing.T) {
	def := Get("premium_ultra")
	if def.ID != PlanFree {
		t.Fatalf("expected unknown plan to normalize to free, got %q", def.ID)
	}
	if def.Sellable {
		t.Fatalf("free must not be sellable")
	}
}

func TestListFixedOrder(t *testing.T) {
	plans := List(ListOptions{IncludeFree: true})
	if len(plans) != 3 {
		t.Fatalf("expected 3 plans, got %d", len(plans))
	}
	want := []Plan{PlanFree, PlanPro, PlanDon}
	for i, def := range plans {
		if def.ID != want[i] {
			t.Fatalf("plan %d = %q, want %q", i, def.ID, want[i])
		}
	}

	sellable := List(ListOptions{SellableOnly: true, IncludeFree: true})
	if len(sellable) != 2 || sellable[0].ID != PlanPro || sellable[1].ID != PlanDon {
		t.Fatalf("unexpected sellable listing: %+v", sellable)
	}
}

func TestComputeExpiry(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if got := ComputeExpiry(start, 1, "free"); got != nil {
		t.Fatalf("free plan must not expire by payment, got %v", got)
	}

	got := ComputeExpiry(start, 1, "pro")
	if got == nil || !got.Equal(start.AddDate(0, 0, 30)) {
		t.Fatalf("pro 1 month expiry = %v, want %v", got, start.AddDate(0, 0, 30))
	}

	got = ComputeExpiry(start, 3, "don")
	if got == nil || !got.Equal(start.AddDate(0, 0, 90)) {
		t.Fatalf("don 3 months expiry = %v, want %v", got, start.AddDate(0, 0, 90))
	}

	// months below one is floored, not rejected
	got = ComputeExpiry(start, 0, "pro")
	if got == nil || !got.Equal(start.AddDate(0, 0, 30)) {
		t.Fatalf("pro 0 months expiry = %v, want %v", got, start.AddDate(0, 0, 30))
	}
}

func TestProductQuotaBoundaries(t *testing.T) {
	// free: exactly 3 existing products blocks the 4th
	if !CanAddProduct("free", 2) {
		t.Fatalf("free user with 2 products should add a 3rd")
	}
	if CanAddProduct("free", 3) {
		t.Fatalf("free user with 3 products must not add a 4th")
	}

	// pro: exactly 20 blocks the 21st
	if !CanAddProduct("pro", 19) {
		t.Fatalf("pro user with 19 products should add a 20th")
	}
	if CanAddProduct("pro", 20) {
		t.Fatalf("pro user with 20 products must not add a 21st")
	}

	// don: never rejected
	if !CanAddProduct("don", 100000) {
		t.Fatalf("don user must never hit a product limit")
	}
}

func TestPlanCapabilities(t *testing.T) {
	if CanIngest("free") || LinkGuardianEnabled("free") || FeaturedAllowed("free") {
		t.Fatalf("free plan must not grant paid capabilities")
	}
	for _, plan := range []string{"pro", "don"} {
		if !CanIngest(plan) || !LinkGuardianEnabled(plan) || !FeaturedAllowed(plan) {
			t.Fatalf("plan %q should grant ingest, guardian and featured", plan)
		}
	}
}
