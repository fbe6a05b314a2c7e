package cmd

import (
	"context"

	"github.com/artpro/wealthtrack/pkg/cache"
	"github.com/spf13/cobra"
)

func init() {
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Maintain the market data cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired market data cache entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := cache.Open(cfg, logger)
		if err != nil {
			return err
		}
		defer c.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		n, err := c.Prune(ctx)
		if err != nil {
			return err
		}
		logger.Info().Int("removed", n).Msg("Cache pruned")
		return nil
	},
}
