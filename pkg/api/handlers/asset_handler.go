package handlers

import (
	"net/http"

	"github.com/artpro/wealthtrack/pkg/marketdata"
	"github.com/artpro/wealthtrack/pkg/middleware"
	"github.com/artpro/wealthtrack/pkg/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AssetHandler serves symbol lookup and the dashboard
type AssetHandler struct {
	market    marketdata.Provider
	dashboard *services.DashboardService
	logger    zerolog.Logger
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(market marketdata.Provider, dashboard *services.DashboardService, logger zerolog.Logger) *AssetHandler {
	return &AssetHandler{
		market:    market,
		dashboard: dashboard,
		logger:    logger,
	}
}

// Search looks up symbols; queries under two characters return no data
func (h *AssetHandler) Search(c *gin.Context) {
	symbol := c.Query("symbol")
	if len(symbol) < 2 {
		c.JSON(http.StatusOK, gin.H{"data": []marketdata.Symbol{}})
		return
	}

	data, err := h.market.SearchSymbols(c.Request.Context(), symbol)
	if err != nil {
		h.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to search symbols")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// Dashboard returns holdings, valuation and performance of all portfolios
func (h *AssetHandler) Dashboard(c *gin.Context) {
	dash, err := h.dashboard.Build(c.Request.Context(), c.GetString(middleware.UserIDKey))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build dashboard")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dash)
}
