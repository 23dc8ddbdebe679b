package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cosanostra/blacklink/app/models"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestSyncPlanExpiredPaidDowngradesToFree(t *testing.T) {
	now := time.Now().UTC()
	expired := now.Add(-48 * time.Hour)
	user := &models.User{
		Username:      "alice",
		Plan:          "pro",
		PlanStatus:    models.PlanStatusActive,
		PlanStartedAt: timePtr(expired.AddDate(0, 0, -30)),
		PlanExpiresAt: timePtr(expired),
	}

	if !SyncPlan(user, now) {
		t.Fatalf("expected sync to report a change")
	}

	if user.Plan != "free" {
		t.Fatalf("plan = %q, want free", user.Plan)
	}
	if user.PlanStatus != models.PlanStatusExpired {
		t.Fatalf("plan_status = %q, want expired", user.PlanStatus)
	}
	if user.PlanStartedAt != nil || user.PlanExpiresAt != nil {
		t.Fatalf("expiry timestamps must be cleared after downgrade")
	}
	if user.LastPaidPlan != "pro" {
		t.Fatalf("last_paid_plan = %q, want pro", user.LastPaidPlan)
	}
	if user.LastPaidExpiresAt == nil || !user.LastPaidExpiresAt.Equal(expired) {
		t.Fatalf("last_paid_expires_at = %v, want %v", user.LastPaidExpiresAt, expired)
	}
}

func TestSyncPlanKeepsExistingLastPaidSnapshot(t *testing.T) {
	now := time.Now().UTC()
	older := now.AddDate(0, -3, 0)
	user := &models.User{
		Username:          "alice",
		Plan:              "pro",
		PlanStatus:        models.PlanStatusActive,
		PlanExpiresAt:     timePtr(now.Add(-time.Hour)),
		LastPaidPlan:      "don",
		LastPaidExpiresAt: timePtr(older),
	}

	SyncPlan(user, now)

	if user.LastPaidPlan != "don" {
		t.Fatalf("existing last_paid_plan overwritten: got %q", user.LastPaidPlan)
	}
	if !user.LastPaidExpiresAt.Equal(older) {
		t.Fatalf("existing last_paid_expires_at overwritten: got %v", user.LastPaidExpiresAt)
	}
}

func TestSyncPlanActivePaidIsUntouched(t *testing.T) {
	now := time.Now().UTC()
	future := now.Add(10 * 24 * time.Hour)
	user := &models.User{
		Username:      "alice",
		Plan:          "don",
		PlanStatus:    models.PlanStatusActive,
		PlanExpiresAt: timePtr(future),
	}

	if SyncPlan(user, now) {
		t.Fatalf("active paid plan should not change on sync")
	}
	if user.Plan != "don" || !user.PlanExpiresAt.Equal(future) {
		t.Fatalf("sync mutated an active paid plan: %+v", user)
	}
}

func TestSyncPlanNormalizesFree(t *testing.T) {
	now := time.Now().UTC()
	user := &models.User{Username: "alice", Plan: "bogus", PlanStatus: "", PlanExpiresAt: timePtr(now.Add(time.Hour))}

	if !SyncPlan(user, now) {
		t.Fatalf("expected normalization to report a change")
	}
	if user.Plan != "free" || user.PlanStatus != models.PlanStatusActive {
		t.Fatalf("normalized state = %q/%q, want free/active", user.Plan, user.PlanStatus)
	}
	if user.PlanExpiresAt != nil {
		t.Fatalf("free plan must not carry an expiry")
	}
}

func TestApplyPaidPlanFreshPurchase(t *testing.T) {
	now := time.Now().UTC()
	user := &models.User{Username: "bob", Plan: "free", PlanStatus: models.PlanStatusActive}

	if err := ApplyPaidPlan(user, "pro", 1, now); err != nil {
		t.Fatalf("ApplyPaidPlan: %v", err)
	}

	if user.Plan != "pro" || user.PlanStatus != models.PlanStatusActive {
		t.Fatalf("state = %q/%q, want pro/active", user.Plan, user.PlanStatus)
	}
	if user.PlanStartedAt == nil || !user.PlanStartedAt.Equal(now) {
		t.Fatalf("plan_started_at = %v, want %v", user.PlanStartedAt, now)
	}
	want := now.AddDate(0, 0, 30)
	if user.PlanExpiresAt == nil || !user.PlanExpiresAt.Equal(want) {
		t.Fatalf("plan_expires_at = %v, want %v", user.PlanExpiresAt, want)
	}
}

func TestApplyPaidPlanRenewalStacks(t *testing.T) {
	now := time.Now().UTC()
	remaining := now.Add(10 * 24 * time.Hour)
	user := &models.User{
		Username:      "bob",
		Plan:          "pro",
		PlanStatus:    models.PlanStatusActive,
		PlanExpiresAt: timePtr(remaining),
	}

	if err := ApplyPaidPlan(user, "pro", 1, now); err != nil {
		t.Fatalf("ApplyPaidPlan: %v", err)
	}

	// renewing before expiry extends from the old expiry, not from now
	want := remaining.AddDate(0, 0, 30)
	if user.PlanExpiresAt == nil || !user.PlanExpiresAt.Equal(want) {
		t.Fatalf("plan_expires_at = %v, want %v", user.PlanExpiresAt, want)
	}
	if user.PlanStartedAt == nil || !user.PlanStartedAt.Equal(remaining) {
		t.Fatalf("renewal anchor = %v, want old expiry %v", user.PlanStartedAt, remaining)
	}
	if user.LastPaidPlan != "pro" || !user.LastPaidExpiresAt.Equal(remaining) {
		t.Fatalf("pre-renewal snapshot not captured: %q %v", user.LastPaidPlan, user.LastPaidExpiresAt)
	}
}

func TestApplyPaidPlanAfterExpiryAnchorsAtNow(t *testing.T) {
	now := time.Now().UTC()
	user := &models.User{
		Username:      "bob",
		Plan:          "pro",
		PlanStatus:    models.PlanStatusExpired,
		PlanExpiresAt: timePtr(now.Add(-24 * time.Hour)),
	}

	if err := ApplyPaidPlan(user, "don", 2, now); err != nil {
		t.Fatalf("ApplyPaidPlan: %v", err)
	}

	want := now.AddDate(0, 0, 60)
	if user.PlanExpiresAt == nil || !user.PlanExpiresAt.Equal(want) {
		t.Fatalf("plan_expires_at = %v, want %v", user.PlanExpiresAt, want)
	}
	if user.Plan != "don" {
		t.Fatalf("plan = %q, want don", user.Plan)
	}
}

func TestApplyPaidPlanRejectsNonSellable(t *testing.T) {
	now := time.Now().UTC()
	for _, plan := range []string{"free", "bogus", ""} {
		user := &models.User{Username: "bob", Plan: "free"}
		err := ApplyPaidPlan(user, plan, 1, now)
		if !errors.Is(err, ErrPlanNotSellable) {
			t.Fatalf("ApplyPaidPlan(%q) err = %v, want ErrPlanNotSellable", plan, err)
		}
		if user.Plan != "free" {
			t.Fatalf("rejected apply must not mutate the user")
		}
	}
}

func TestServiceSyncUserPersistsDowngrade(t *testing.T) {
	now := time.Now().UTC()
	repo := newMemoryRepository(&models.User{
		Username:      "carol",
		Plan:          "pro",
		PlanStatus:    models.PlanStatusActive,
		PlanExpiresAt: timePtr(now.Add(-time.Hour)),
	})
	svc := NewService(repo)

	user, err := svc.SyncUser(context.Background(), "Carol")
	if err != nil {
		t.Fatalf("SyncUser: %v", err)
	}
	if user.Plan != "free" || user.PlanStatus != models.PlanStatusExpired {
		t.Fatalf("synced state = %q/%q, want free/expired", user.Plan, user.PlanStatus)
	}

	stored, err := repo.GetUserByUsername("carol")
	if err != nil {
		t.Fatalf("lookup after sync: %v", err)
	}
	if stored.Plan != "free" || stored.PlanStatus != models.PlanStatusExpired {
		t.Fatalf("downgrade was not persisted: %q/%q", stored.Plan, stored.PlanStatus)
	}
}

func TestServiceSyncUserUnknown(t *testing.T) {
	svc := NewService(newMemoryRepository())
	if _, err := svc.SyncUser(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestServiceUpgradeUser(t *testing.T) {
	repo := newMemoryRepository(&models.User{Username: "dave", Plan: "free", PlanStatus: models.PlanStatusActive})
	svc := NewService(repo)

	user, err := svc.UpgradeUser(context.Background(), "dave", "pro", 1)
	if err != nil {
		t.Fatalf("UpgradeUser: %v", err)
	}
	if user.Plan != "pro" || user.PlanExpiresAt == nil {
		t.Fatalf("upgrade did not activate pro with expiry: %+v", user)
	}

	// same plan again is rejected
	if _, err := svc.UpgradeUser(context.Background(), "dave", "pro", 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("repeat upgrade err = %v, want ErrValidation", err)
	}

	// don cannot downgrade
	if _, err := svc.UpgradeUser(context.Background(), "dave", "don", 1); err != nil {
		t.Fatalf("upgrade to don: %v", err)
	}
	if _, err := svc.UpgradeUser(context.Background(), "dave", "pro", 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("downgrade from don err = %v, want ErrValidation", err)
	}
}
