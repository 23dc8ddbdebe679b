package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cosanostra/blacklink/app/models"
	"github.com/cosanostra/blacklink/internal/pkg/entitlements"
	"gorm.io/gorm"
)

// Service is the entitlement engine: the only code allowed to write a user's
// Plan* fields. Controllers call SyncUser before any entitlement decision so
// an expired paid plan is never served as active.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

func isPaidPlan(plan string) bool {
	p := entitlements.Normalize(plan)
	return p == entitlements.PlanPro || p == entitlements.PlanDon
}

// SyncPlan performs the lazy expiry check on a user in memory and reports
// whether anything changed. A paid plan whose expiry lies strictly before now
// downgrades to free/expired, capturing the last-paid snapshot once per
// cycle. A non-expired state is normalized: paid plans read active, free
// carries no expiry.
func SyncPlan(user *models.User, now time.Time) bool {
	plan := entitlements.Normalize(user.Plan)
	changed := false

	if isPaidPlan(string(plan)) && user.PlanExpiresAt != nil && user.PlanExpiresAt.Before(now) {
		if user.LastPaidPlan == "" {
			user.LastPaidPlan = string(plan)
		}
		if user.LastPaidExpiresAt == nil {
			user.LastPaidExpiresAt = user.PlanExpiresAt
		}
		user.Plan = string(entitlements.PlanFree)
		user.PlanStatus = models.PlanStatusExpired
		user.PlanStartedAt = nil
		user.PlanExpiresAt = nil
		return true
	}

	if isPaidPlan(string(plan)) {
		// canceled is an admin decision and survives sync
		if user.PlanStatus != models.PlanStatusActive && user.PlanStatus != models.PlanStatusCanceled {
			user.PlanStatus = models.PlanStatusActive
			changed = true
		}
		return changed
	}

	if user.Plan != string(entitlements.PlanFree) {
		user.Plan = string(entitlements.PlanFree)
		changed = true
	}
	if user.PlanStatus == "" {
		user.PlanStatus = models.PlanStatusActive
		changed = true
	}
	if user.PlanExpiresAt != nil {
		// free never carries a payment expiry
		user.PlanExpiresAt = nil
		user.PlanStartedAt = nil
		changed = true
	}
	return changed
}

// ApplyPaidPlan commits a purchase or renewal on the user in memory.
// Renewals stack: while a paid plan is still active, the new period starts at
// the existing expiry instead of resetting it. Callers persist the mutation;
// exactly-once-per-payment is the gateway's job.
func ApplyPaidPlan(user *models.User, plan string, months int, now time.Time) error {
	def := entitlements.Get(plan)
	if !def.Sellable {
		return fmt.Errorf("%w: %q", ErrPlanNotSellable, plan)
	}
	if months < 1 {
		months = 1
	}

	anchor := now
	if isPaidPlan(user.Plan) &&
		user.PlanStatus == models.PlanStatusActive &&
		user.PlanExpiresAt != nil &&
		user.PlanExpiresAt.After(now) {
		anchor = *user.PlanExpiresAt
	}

	expiresAt := entitlements.ComputeExpiry(anchor, months, string(def.ID))

	// snapshot the entitlement being replaced before overwriting
	if isPaidPlan(user.Plan) {
		user.LastPaidPlan = user.Plan
		user.LastPaidExpiresAt = user.PlanExpiresAt
	}

	user.Plan = string(def.ID)
	user.PlanStatus = models.PlanStatusActive
	user.PlanStartedAt = &anchor
	user.PlanExpiresAt = expiresAt
	return nil
}

// SyncUser loads a user by username, applies the expiry check and persists
// the result when it changed anything.
func (s *Service) SyncUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repo.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, username)
		}
		return nil, err
	}

	if SyncPlan(user, time.Now().UTC()) {
		if err := s.repo.SaveUser(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// UpgradeUser is the direct (non-payment) upgrade path used by the plan
// endpoint: don cannot be downgraded and re-upgrading to the same plan is
// rejected.
func (s *Service) UpgradeUser(ctx context.Context, username, plan string, months int) (*models.User, error) {
	def := entitlements.Get(plan)
	if !def.Sellable {
		return nil, fmt.Errorf("%w: %q", ErrPlanNotSellable, plan)
	}

	user, err := s.SyncUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if user.Plan == string(entitlements.PlanDon) && def.ID != entitlements.PlanDon {
		return nil, fmt.Errorf("%w: downgrade from don is not allowed", ErrValidation)
	}
	if user.Plan == string(def.ID) {
		return nil, fmt.Errorf("%w: user already on plan %q", ErrValidation, plan)
	}

	if err := ApplyPaidPlan(user, string(def.ID), months, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
