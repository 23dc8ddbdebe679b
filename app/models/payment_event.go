package models

import "time"

const PaymentProviderMercadoPago = "mercadopago"

// PaymentEvent is the idempotency record for webhook reconciliation: one row
// per provider payment id ever applied to an entitlement. The unique index on
// (provider, payment_id) is what makes duplicate deliveries collapse into a
// no-op, including concurrent ones.
type PaymentEvent struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Provider  string `gorm:"type:varchar(20);not null;index:ux_payment_events_provider_payment,unique,priority:1" json:"provider"`
	PaymentID string `gorm:"type:varchar(191);not null;index:ux_payment_events_provider_payment,unique,priority:2" json:"payment_id"`

	Username string `gorm:"type:varchar(50);not null;index" json:"username"`
	Plan     string `gorm:"type:varchar(20);not null" json:"plan"`
	Months   int    `gorm:"not null;default:1" json:"months"`

	Status     string `gorm:"type:varchar(32);not null" json:"status"`
	AmountBRL  string `gorm:"type:varchar(50)" json:"amount_brl"`
	RawPayload string `gorm:"type:longtext" json:"-"`

	ProcessedAt *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}
