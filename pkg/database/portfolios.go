package database

import (
	"context"
	"fmt"

	"github.com/artpro/wealthtrack/pkg/models"
	"gorm.io/gorm"
)

// PortfolioRepository reads and writes portfolios
type PortfolioRepository struct {
	db *gorm.DB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *gorm.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// ListByUser returns the user's portfolios, oldest first
func (r *PortfolioRepository) ListByUser(ctx context.Context, userID string) ([]models.Portfolio, error) {
	portfolios := []models.Portfolio{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&portfolios).Error; err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	return portfolios, nil
}

// Create stores a new portfolio for the user
func (r *PortfolioRepository) Create(ctx context.Context, userID, name string, description *string) (*models.Portfolio, error) {
	portfolio := models.Portfolio{
		Name:        name,
		Description: description,
		UserID:      userID,
	}
	if err := r.db.WithContext(ctx).Create(&portfolio).Error; err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}
	return &portfolio, nil
}

// FindOwned returns the portfolio if it belongs to userID, ErrNotFound otherwise
func (r *PortfolioRepository) FindOwned(ctx context.Context, id, userID string) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&portfolio).Error; err != nil {
		return nil, notFound(err)
	}
	return &portfolio, nil
}

// Delete removes an owned portfolio together with its transactions
func (r *PortfolioRepository) Delete(ctx context.Context, id, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var portfolio models.Portfolio
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&portfolio).Error; err != nil {
			return notFound(err)
		}

		// postgres enforces the FK cascade, sqlite only with the pragma; delete explicitly for both
		if err := tx.Where("portfolio_id = ?", id).Delete(&models.Transaction{}).Error; err != nil {
			return fmt.Errorf("failed to delete transactions: %w", err)
		}
		if err := tx.Delete(&portfolio).Error; err != nil {
			return fmt.Errorf("failed to delete portfolio: %w", err)
		}
		return nil
	})
}
