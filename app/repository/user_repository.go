package repository

import (
	"strings"

	"github.com/cosanostra/blacklink/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	user.Username = models.NormalizeUsername(user.Username)
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by their normalized username
func (r *userRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.Where("username = ?", models.NormalizeUsername(username)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete removes a user by their ID
func (r *userRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// List retrieves a paginated list of users
func (r *userRepository) List(offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

// Count returns the total number of users
func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// Search searches for users by username or display name
func (r *userRepository) Search(query string) ([]models.User, error) {
	var users []models.User
	searchPattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("username LIKE ? OR display_name LIKE ?", searchPattern, searchPattern).Find(&users).Error
	return users, err
}

// GetFeaturedSellers returns paid-plan users for the storefront homepage,
// newest first. Don ranks above pro.
func (r *userRepository) GetFeaturedSellers(limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.
		Where("plan IN ? AND plan_status = ?", []string{"pro", "don"}, models.PlanStatusActive).
		Order("FIELD(plan, 'don', 'pro'), created_at DESC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// UsernameExists reports whether the normalized username is taken
func (r *userRepository) UsernameExists(username string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("username = ?", models.NormalizeUsername(username)).
		Count(&count).Error
	return count > 0, err
}
