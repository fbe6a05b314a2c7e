package handler

import (
	"context"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/artpro/wealthtrack/pkg/api"
	"github.com/artpro/wealthtrack/pkg/cache"
	"github.com/artpro/wealthtrack/pkg/config"
	"github.com/artpro/wealthtrack/pkg/database"
)

var (
	router  *gin.Engine
	once    sync.Once
	initErr error
)

// initialize builds the router once per function instance
func initialize() {
	once.Do(func() {
		gin.SetMode(gin.ReleaseMode)

		logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
		cfg := config.Load()

		db, err := database.InitDB(cfg.DatabasePath, cfg.DatabaseURL, logger, false)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to initialize database")
			initErr = err
			return
		}

		// a file cache does not survive between invocations
		if cfg.CacheDriver == "leveldb" || cfg.CacheDriver == "file" {
			cfg.CacheDriver = "memory"
		}
		c, err := cache.Open(cfg, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to open cache")
			initErr = err
			return
		}

		svc, err := api.NewServices(context.Background(), cfg, c, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to initialize services")
			initErr = err
			return
		}

		// Note: Scheduler is disabled in serverless environment
		logger.Info().Msg("Running in serverless mode - scheduler disabled")

		router = api.SetupRouter(db, cfg, svc, logger)
	})
}

// Handler is the entry point for the serverless function
func Handler(w http.ResponseWriter, r *http.Request) {
	initialize()

	if initErr != nil {
		log.Printf("Initialization error: %v", initErr)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	router.ServeHTTP(w, r)
}
