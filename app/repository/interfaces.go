package repository

import (
	"github.com/cosanostra/blacklink/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
	GetFeaturedSellers(limit int) ([]models.User, error)
	UsernameExists(username string) (bool, error)
}

// ProductRepository defines the interface for product-related database operations
type ProductRepository interface {
	Create(product *models.Product) error
	GetByID(id uint) (*models.Product, error)
	GetByUserID(userID uint) ([]models.Product, error)
	GetActiveByUserID(userID uint) ([]models.Product, error)
	Update(product *models.Product) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
	GetFeatured(limit int) ([]models.Product, error)
	GetRecent(limit int) ([]models.Product, error)
	GetActiveWithMercadoLivreLinks(limit int) ([]models.Product, error)
	ExistsByUserIDAndURL(userID uint, url string) (bool, error)
}

// PaymentEventRepository defines the interface for payment reconciliation records
type PaymentEventRepository interface {
	GetByProviderPaymentID(provider, paymentID string) (*models.PaymentEvent, error)
	ListByUsername(username string, offset, limit int) ([]models.PaymentEvent, error)
	Count() (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Product      ProductRepository
	PaymentEvent PaymentEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Product:      NewProductRepository(db),
		PaymentEvent: NewPaymentEventRepository(db),
	}
}
