package billing

import (
	"context"
	"time"

	"github.com/cosanostra/blacklink/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the DB operations used by the billing service and
// gateway. Lookups return gorm.ErrRecordNotFound on misses; the service
// layer translates that into its own error kinds.
type Repository interface {
	GetUserByUsername(username string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	HasProcessedPayment(provider, paymentID string) (bool, error)

	// CommitReconciliation persists the entitlement mutation and the
	// idempotency record as one atomic unit. It returns false without
	// saving the user when the payment id was already recorded, so a
	// concurrent duplicate delivery cannot double-apply.
	CommitReconciliation(ctx context.Context, user *models.User, event *models.PaymentEvent) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUserByUsername(username string) (*models.User, error) {
	return models.GetUserByUsername(r.db, username)
}

func (r *gormRepository) SaveUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *gormRepository) HasProcessedPayment(provider, paymentID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.PaymentEvent{}).
		Where("provider = ? AND payment_id = ?", provider, paymentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormRepository) CommitReconciliation(ctx context.Context, user *models.User, event *models.PaymentEvent) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		event.ProcessedAt = &now

		res := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "provider"},
				{Name: "payment_id"},
			},
			DoNothing: true,
		}).Create(event)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// lost the race against another delivery of the same payment
			return nil
		}

		if err := tx.Save(user).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}
