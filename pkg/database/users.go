package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpro/wealthtrack/pkg/models"
	"gorm.io/gorm"
)

// UserRepository reads and writes users
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns the user with the given email or ErrNotFound
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FindByID returns the user with the given id or ErrNotFound
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Create stores a new user; the email must not be registered yet
func (r *UserRepository) Create(ctx context.Context, email, passwordHash string) (*models.User, error) {
	if _, err := r.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user := models.User{
		Email:             email,
		Password:          passwordHash,
		PreferredCurrency: models.DefaultCurrency,
	}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// UpdatePreferredCurrency sets the currency the dashboard is valued in
func (r *UserRepository) UpdatePreferredCurrency(ctx context.Context, id, currency string) (*models.User, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.PreferredCurrency = currency
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update preferred currency: %w", err)
	}
	return user, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
