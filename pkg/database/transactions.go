package database

import (
	"context"
	"fmt"

	"github.com/artpro/wealthtrack/pkg/models"
	"gorm.io/gorm"
)

// TransactionRepository reads and writes portfolio transactions
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// CreateBatch stores all transactions for a portfolio or none of them
func (r *TransactionRepository) CreateBatch(ctx context.Context, portfolioID string, txs []models.Transaction) ([]models.Transaction, error) {
	created := make([]models.Transaction, 0, len(txs))

	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		for _, tx := range txs {
			tx.PortfolioID = portfolioID
			if err := db.Create(&tx).Error; err != nil {
				return fmt.Errorf("failed to create transaction %s: %w", tx.AssetSymbol, err)
			}
			created = append(created, tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListByPortfolio returns the transactions of one portfolio ordered by date
func (r *TransactionRepository) ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Transaction, error) {
	return r.ListByPortfolios(ctx, []string{portfolioID})
}

// ListByPortfolios returns the transactions of all given portfolios ordered by date
func (r *TransactionRepository) ListByPortfolios(ctx context.Context, portfolioIDs []string) ([]models.Transaction, error) {
	txs := []models.Transaction{}
	if len(portfolioIDs) == 0 {
		return txs, nil
	}
	if err := r.db.WithContext(ctx).
		Where("portfolio_id IN ?", portfolioIDs).
		Order("date ASC").
		Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}
