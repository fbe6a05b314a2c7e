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

// UserHandler serves the current user's profile
type UserHandler struct {
	users  *database.UserRepository
	logger zerolog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *database.UserRepository, logger zerolog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// Me returns the safe fields of the current user
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.users.FindByID(c.Request.Context(), c.GetString(middleware.UserIDKey))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                user.ID,
		"email":             user.Email,
		"preferredCurrency": user.PreferredCurrency,
		"createdAt":         user.CreatedAt,
	})
}

// UpdateCurrencyRequest represents the currency change body
type UpdateCurrencyRequest struct {
	PreferredCurrency string `json:"preferredCurrency"`
}

// UpdateCurrency changes the currency the dashboard is valued in
func (h *UserHandler) UpdateCurrency(c *gin.Context) {
	var req UpdateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid currency"})
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.PreferredCurrency))
	if !models.IsCurrencyCode(currency) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid currency"})
		return
	}

	_, err := h.users.UpdatePreferredCurrency(c.Request.Context(), c.GetString(middleware.UserIDKey), currency)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to update currency")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "preferredCurrency": currency})
}
