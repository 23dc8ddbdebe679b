package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	PlanStatusActive   = "active"
	PlanStatusExpired  = "expired"
	PlanStatusCanceled = "canceled"
)

// User is a BlackLink tenant: the owner of a public storefront page.
// Plan lifecycle fields are only ever written through the billing service.
type User struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Username    string `gorm:"type:varchar(50);uniqueIndex;not null" json:"username" validate:"required,min=2,max=50,excludes=:"`
	DisplayName string `gorm:"type:varchar(150)" json:"display_name" validate:"max=150"`
	Bio         string `gorm:"type:text" json:"bio" validate:"max=1000"`

	// contact / payment identity, backfilled from payer data when absent
	Email        string `gorm:"type:varchar(180);default:null" json:"email" validate:"omitempty,email,max=180"`
	PasswordHash string `gorm:"type:text" json:"-"`

	AvatarURL string `gorm:"type:text" json:"avatar_url"`

	MainCTAURL      string `gorm:"type:text" json:"main_cta_url"`
	MainCTALabel    string `gorm:"type:text" json:"main_cta_label"`
	MainCTASubtitle string `gorm:"type:text" json:"main_cta_subtitle"`

	InstagramURL    string `gorm:"type:text" json:"instagram_url"`
	TiktokURL       string `gorm:"type:text" json:"tiktok_url"`
	YoutubeURL      string `gorm:"type:text" json:"youtube_url"`
	TelegramURL     string `gorm:"type:text" json:"telegram_url"`
	LinkedinURL     string `gorm:"type:text" json:"linkedin_url"`
	GithubURL       string `gorm:"type:text" json:"github_url"`
	FacebookURL     string `gorm:"type:text" json:"facebook_url"`
	KwaiURL         string `gorm:"type:text" json:"kwai_url"`
	MercadoLivreURL string `gorm:"type:text" json:"mercadolivre_url"`

	// current plan governs limits
	Plan       string `gorm:"type:varchar(20);not null;default:'free'" json:"plan"`
	PlanStatus string `gorm:"type:varchar(20);not null;default:'active'" json:"plan_status"`

	PlanStartedAt *time.Time `gorm:"type:timestamp;default:null" json:"plan_started_at"`
	PlanExpiresAt *time.Time `gorm:"type:timestamp;default:null" json:"plan_expires_at"`

	// snapshot of the most recent paid entitlement, kept across expiry
	LastPaidPlan      string     `gorm:"type:varchar(20);default:null" json:"last_paid_plan"`
	LastPaidExpiresAt *time.Time `gorm:"type:timestamp;default:null" json:"last_paid_expires_at"`

	MPCustomerID     string `gorm:"type:varchar(120);default:null" json:"-"`
	MPSubscriptionID string `gorm:"type:varchar(120);default:null" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Products []Product `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()
	return v.Struct(u)
}

// NormalizeUsername applies the single normalization rule used everywhere
// a username crosses a boundary: trim and lowercase.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NewUser builds a user with a normalized username and default free plan.
func NewUser(username, displayName string) *User {
	username = NormalizeUsername(username)
	if displayName == "" {
		displayName = username
	}
	return &User{
		Username:    username,
		DisplayName: displayName,
		Plan:        "free",
		PlanStatus:  PlanStatusActive,
	}
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// HasPassword reports whether password login is enforced for this user.
// Accounts created through the MVP flow have none and log in by username.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// GetUserByUsername loads a user by normalized username.
func GetUserByUsername(db *gorm.DB, username string) (*User, error) {
	var u User
	if err := db.Where("username = ?", NormalizeUsername(username)).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
