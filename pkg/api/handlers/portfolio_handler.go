package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/artpro/wealthtrack/pkg/database"
	"github.com/artpro/wealthtrack/pkg/middleware"
	"github.com/artpro/wealthtrack/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PortfolioHandler handles portfolio-related requests
type PortfolioHandler struct {
	portfolios *database.PortfolioRepository
	logger     zerolog.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(portfolios *database.PortfolioRepository, logger zerolog.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolios: portfolios,
		logger:     logger,
	}
}

// CreatePortfolioRequest represents the new portfolio body
type CreatePortfolioRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// List returns the current user's portfolios
func (h *PortfolioHandler) List(c *gin.Context) {
	portfolios, err := h.portfolios.ListByUser(c.Request.Context(), c.GetString(middleware.UserIDKey))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch portfolios")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch portfolios"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"portfolios": portfolios})
}

// Create adds a portfolio for the current user
func (h *PortfolioHandler) Create(c *gin.Context) {
	var req CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	portfolio, err := h.portfolios.Create(c.Request.Context(), c.GetString(middleware.UserIDKey), req.Name, req.Description)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create portfolio")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info().Str("portfolio_id", portfolio.ID).Msg("Portfolio created")
	c.JSON(http.StatusCreated, gin.H{"portfolio": portfolio})
}

// Delete removes an owned portfolio and its transactions
func (h *PortfolioHandler) Delete(c *gin.Context) {
	err := h.portfolios.Delete(c.Request.Context(), c.Param("id"), c.GetString(middleware.UserIDKey))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to delete portfolio")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete portfolio"})
		return
	}

	h.logger.Info().Str("portfolio_id", c.Param("id")).Msg("Portfolio deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Portfolio deleted successfully"})
}

// ownedPortfolio loads the :id portfolio of the current user, writing a 404 when
// it does not exist or belongs to someone else
func ownedPortfolio(c *gin.Context, portfolios *database.PortfolioRepository, logger zerolog.Logger) (*models.Portfolio, bool) {
	portfolio, err := portfolios.FindOwned(c.Request.Context(), c.Param("id"), c.GetString(middleware.UserIDKey))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return nil, false
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch portfolio")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch portfolio"})
		return nil, false
	}
	return portfolio, true
}
