package repository

import (
	"strings"

	"github.com/cosanostra/blacklink/app/models"
	"gorm.io/gorm"
)

// productRepository implements the ProductRepository interface
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository instance
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create creates a new product in the database
func (r *productRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// GetByID retrieves a product by its ID
func (r *productRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByUserID retrieves all products owned by a user, featured first
func (r *productRepository) GetByUserID(userID uint) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("user_id = ?", userID).
		Order("is_featured DESC, created_at DESC").
		Find(&products).Error
	return products, err
}

// GetActiveByUserID retrieves the products shown on a user's public page
func (r *productRepository) GetActiveByUserID(userID uint) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("is_featured DESC, created_at DESC").
		Find(&products).Error
	return products, err
}

// Update updates an existing product in the database
func (r *productRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

// Delete removes a product by its ID
func (r *productRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}

// CountByUserID returns the number of products a user owns. Quota checks
// count all products, including inactive ones.
func (r *productRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Product{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// GetFeatured returns active featured products for the storefront homepage
func (r *productRepository) GetFeatured(limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("is_featured = ? AND is_active = ?", true, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// GetRecent returns the newest active products across all users
func (r *productRepository) GetRecent(limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("is_active = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// GetActiveWithMercadoLivreLinks returns active products whose target URL
// points at Mercado Livre, for link health checks
func (r *productRepository) GetActiveWithMercadoLivreLinks(limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("is_active = ? AND (url LIKE ? OR url LIKE ?)",
		true, "%mercadolivre.com%", "%mercadolibre.com%").
		Order("checked_at IS NOT NULL, checked_at ASC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// ExistsByUserIDAndURL reports whether the user already lists this URL
func (r *productRepository) ExistsByUserIDAndURL(userID uint, url string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Product{}).
		Where("user_id = ? AND url = ?", userID, strings.TrimSpace(url)).
		Count(&count).Error
	return count > 0, err
}
