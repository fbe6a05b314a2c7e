package cmd

import (
	"context"

	"github.com/artpro/wealthtrack/pkg/api"
	"github.com/artpro/wealthtrack/pkg/cache"
	"github.com/artpro/wealthtrack/pkg/database"
	"github.com/artpro/wealthtrack/pkg/scheduler"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var port string

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on, overrides PORT")
	rootCmd.AddCommand(serveCmd)

	// serve is the default command
	rootCmd.RunE = serveCmd.RunE
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		// Initialize database
		db, err := database.InitDB(cfg.DatabasePath, cfg.DatabaseURL, logger, !cfg.IsProduction())
		if err != nil {
			return err
		}

		c, err := cache.Open(cfg, logger)
		if err != nil {
			return err
		}
		defer c.Close()

		svc, err := api.NewServices(ctx, cfg, c, logger)
		if err != nil {
			return err
		}

		// Initialize scheduler if enabled
		if cfg.EnableScheduler {
			s, err := scheduler.New(c, cfg.CachePruneInterval, logger)
			if err != nil {
				return err
			}
			s.Start()
			defer s.Stop()
		}

		if port != "" {
			cfg.Port = port
		}
		return run(db, svc)
	},
}

func run(db *gorm.DB, svc api.Services) error {
	router := api.SetupRouter(db, cfg, svc, logger)
	logger.Info().Msgf("Starting server on port %s", cfg.Port)
	return router.Run(":" + cfg.Port)
}
