package api

import (
	"net/http"
	"strings"

	"github.com/artpro/wealthtrack/pkg/api/handlers"
	"github.com/artpro/wealthtrack/pkg/config"
	"github.com/artpro/wealthtrack/pkg/database"
	"github.com/artpro/wealthtrack/pkg/ingest"
	"github.com/artpro/wealthtrack/pkg/marketdata"
	"github.com/artpro/wealthtrack/pkg/middleware"
	"github.com/artpro/wealthtrack/pkg/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Services are the external collaborators of the API
type Services struct {
	Market marketdata.Provider
	Parser *ingest.Parser
	Mailer handlers.WelcomeSender
}

// SetupRouter sets up the Gin router with all routes and middleware
func SetupRouter(db *gorm.DB, cfg *config.Config, svc Services, logger zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOriginFunc: func(origin string) bool {
			// Allow localhost for development
			if strings.HasPrefix(origin, "http://localhost:") {
				return !cfg.IsProduction()
			}
			return origin == cfg.FrontendURL
		},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	router.Use(cors.New(corsConfig))

	users := database.NewUserRepository(db)
	portfolios := database.NewPortfolioRepository(db)
	transactions := database.NewTransactionRepository(db)
	dashboard := services.NewDashboardService(portfolios, transactions, users, svc.Market, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(users, svc.Mailer, cfg, logger)
	userHandler := handlers.NewUserHandler(users, logger)
	portfolioHandler := handlers.NewPortfolioHandler(portfolios, logger)
	transactionHandler := handlers.NewTransactionHandler(portfolios, transactions, logger)
	assetHandler := handlers.NewAssetHandler(svc.Market, dashboard, logger)
	importHandler := handlers.NewImportHandler(portfolios, svc.Parser, cfg.MaxUploadBytes, logger)

	// Public routes
	public := router.Group("/api")
	{
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	// Protected routes
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(cfg))
	{
		protected.POST("/logout", authHandler.Logout)

		// User routes
		protected.GET("/user/me", userHandler.Me)
		protected.PATCH("/user/currency", userHandler.UpdateCurrency)

		// Portfolio routes
		protected.GET("/portfolio", portfolioHandler.List)
		protected.POST("/portfolio", portfolioHandler.Create)
		protected.DELETE("/portfolio/:id", portfolioHandler.Delete)

		// Transaction routes
		protected.GET("/portfolio/:id/transactions", transactionHandler.List)
		protected.POST("/portfolio/:id/transactions", transactionHandler.Create)

		// Import routes
		protected.POST("/portfolio/:id/parse-broker-file", importHandler.ParseBrokerFile)
		protected.POST("/portfolio/:id/import/:exchange", importHandler.ImportExchange)
		protected.GET("/exchanges", importHandler.ListExchanges)

		// Market data routes
		protected.GET("/assets/search", assetHandler.Search)
		protected.GET("/dashboard/assets", assetHandler.Dashboard)
	}

	return router
}
