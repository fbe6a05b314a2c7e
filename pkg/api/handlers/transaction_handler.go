package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/artpro/wealthtrack/pkg/database"
	"github.com/artpro/wealthtrack/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// TransactionHandler handles portfolio transactions
type TransactionHandler struct {
	portfolios   *database.PortfolioRepository
	transactions *database.TransactionRepository
	logger       zerolog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(portfolios *database.PortfolioRepository, transactions *database.TransactionRepository, logger zerolog.Logger) *TransactionHandler {
	return &TransactionHandler{
		portfolios:   portfolios,
		transactions: transactions,
		logger:       logger,
	}
}

// TransactionInput is one transaction as sent by the client
type TransactionInput struct {
	Type           *string  `json:"type" binding:"required,oneof=buy sell deposit withdraw"`
	Symbol         *string  `json:"symbol" binding:"required"`
	Exchange       *string  `json:"exchange" binding:"required"`
	InstrumentType *string  `json:"instrument_type" binding:"required,oneof=stock crypto cash other"`
	Amount         *float64 `json:"amount" binding:"required"`
	Price          *float64 `json:"price" binding:"required"`
	Date           *string  `json:"date" binding:"required"`
	Notes          *string  `json:"notes"`
	Currency       *string  `json:"currency" binding:"required"`
	AssetName      *string  `json:"assetName" binding:"required"`
}

// CreateTransactionsRequest represents the batch insert body
type CreateTransactionsRequest struct {
	Transactions []TransactionInput `json:"transactions" binding:"required,dive"`
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// List returns the transactions of an owned portfolio
func (h *TransactionHandler) List(c *gin.Context) {
	portfolio, ok := ownedPortfolio(c, h.portfolios, h.logger)
	if !ok {
		return
	}

	txs, err := h.transactions.ListByPortfolio(c.Request.Context(), portfolio.ID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch transactions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

// Create stores a batch of transactions, all or none
func (h *TransactionHandler) Create(c *gin.Context) {
	portfolio, ok := ownedPortfolio(c, h.portfolios, h.logger)
	if !ok {
		return
	}

	var req CreateTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload", "details": bindingDetails(err)})
		return
	}

	txs := make([]models.Transaction, 0, len(req.Transactions))
	fieldErrors := map[string]string{}
	for i, in := range req.Transactions {
		date, err := parseDate(*in.Date)
		if err != nil {
			fieldErrors[fmt.Sprintf("transactions[%d].date", i)] = err.Error()
			continue
		}
		txs = append(txs, models.Transaction{
			PortfolioID: portfolio.ID,
			AssetSymbol: *in.Symbol,
			AssetName:   *in.AssetName,
			AssetType:   models.AssetType(*in.InstrumentType),
			Type:        models.TransactionType(*in.Type),
			Quantity:    *in.Amount,
			Price:       *in.Price,
			Date:        date,
			Notes:       in.Notes,
			Currency:    *in.Currency,
			Exchange:    *in.Exchange,
		})
	}
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload", "details": gin.H{"fieldErrors": fieldErrors}})
		return
	}

	created, err := h.transactions.CreateBatch(c.Request.Context(), portfolio.ID, txs)
	if err != nil {
		h.logger.Error().Err(err).Str("portfolio_id", portfolio.ID).Msg("Failed to save transactions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info().Str("portfolio_id", portfolio.ID).Int("count", len(created)).Msg("Transactions created")
	c.JSON(http.StatusCreated, gin.H{"transactions": created})
}

// bindingDetails flattens binding errors into field → rule
func bindingDetails(err error) gin.H {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := map[string]string{}
		for _, fe := range verrs {
			ns := fe.Namespace()
			if i := strings.IndexByte(ns, '.'); i >= 0 {
				ns = ns[i+1:]
			}
			fields[ns] = fe.Tag()
		}
		return gin.H{"fieldErrors": fields}
	}
	return gin.H{"formErrors": []string{err.Error()}}
}
