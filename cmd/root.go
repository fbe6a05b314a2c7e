package cmd

import (
	"fmt"
	"os"

	"github.com/artpro/wealthtrack/pkg/config"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	envFile  string
	logLevel string

	cfg    *config.Config
	logger zerolog.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Logging level, overrides LOG_LEVEL")
}

var rootCmd = &cobra.Command{
	Use:   "wealthtrack",
	Short: "Wealthtrack tracks portfolios across brokers and exchanges",
	Long: `Wealthtrack records portfolio transactions, values holdings with market data
and imports broker statements and exchange exports.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Load environment variables
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintln(os.Stderr, "No .env file found, using system environment variables")
		}

		cfg = config.Load()
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger = newLogger(cfg)
	},
}

// newLogger writes JSON in production and a console format elsewhere
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var l zerolog.Logger
	if cfg.IsProduction() {
		l = zerolog.New(os.Stdout)
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return l.Level(level).With().Timestamp().Logger()
}

// Execute runs the command line
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
