package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Product is one affiliate item on a user's storefront page.
type Product struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`

	Title       string `gorm:"type:varchar(200);not null" json:"title" validate:"required,max=200"`
	Description string `gorm:"type:text" json:"description"`

	URL string `gorm:"type:varchar(600)" json:"url" validate:"omitempty,url,max=600"`

	// ImageURL points at the mirrored copy when S3 mirroring is configured;
	// SourceImageURL always keeps the upstream original.
	ImageURL       string `gorm:"type:text" json:"image_url"`
	SourceImageURL string `gorm:"type:text" json:"source_image_url"`

	Price    string `gorm:"type:varchar(50)" json:"price"`
	Tag      string `gorm:"type:text" json:"tag"`
	Badge    string `gorm:"type:text" json:"badge"`
	CTALabel string `gorm:"type:text" json:"cta_label"`

	IsActive   bool `gorm:"default:true;index" json:"is_active"`
	IsFeatured bool `gorm:"default:false" json:"is_featured"`

	// link health bookkeeping, written only by the guardian
	CheckedAt       *time.Time `gorm:"type:timestamp;default:null" json:"checked_at,omitempty"`
	LastCheckStatus int        `gorm:"default:0" json:"last_check_status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Product) Validate() error {
	v := validator.New()
	return v.Struct(p)
}
