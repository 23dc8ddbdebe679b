package repository

import (
	"github.com/cosanostra/blacklink/app/models"
	"gorm.io/gorm"
)

// paymentEventRepository implements the PaymentEventRepository interface.
// Writes go through the billing package's transactional commit; this side
// is read-only audit access.
type paymentEventRepository struct {
	db *gorm.DB
}

// NewPaymentEventRepository creates a new payment event repository instance
func NewPaymentEventRepository(db *gorm.DB) PaymentEventRepository {
	return &paymentEventRepository{db: db}
}

// GetByProviderPaymentID retrieves one reconciliation record
func (r *paymentEventRepository) GetByProviderPaymentID(provider, paymentID string) (*models.PaymentEvent, error) {
	var event models.PaymentEvent
	err := r.db.Where("provider = ? AND payment_id = ?", provider, paymentID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListByUsername retrieves a user's payment history, newest first. An empty
// username lists across all users.
func (r *paymentEventRepository) ListByUsername(username string, offset, limit int) ([]models.PaymentEvent, error) {
	var events []models.PaymentEvent
	q := r.db.Order("created_at DESC").Offset(offset).Limit(limit)
	if username != "" {
		q = q.Where("username = ?", models.NormalizeUsername(username))
	}
	err := q.Find(&events).Error
	return events, err
}

// Count returns the total number of processed payment events
func (r *paymentEventRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.PaymentEvent{}).Count(&count).Error
	return count, err
}
