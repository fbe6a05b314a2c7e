package cmd

import (
	"github.com/artpro/wealthtrack/pkg/database"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(_ *cobra.Command, _ []string) error {
		// InitDB migrates on connect
		if _, err := database.InitDB(cfg.DatabasePath, cfg.DatabaseURL, logger, false); err != nil {
			return err
		}
		logger.Info().Msg("Database migrated")
		return nil
	},
}
