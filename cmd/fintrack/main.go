// Command fintrack serves the finance store over HTTP and prints summaries
// from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boddenberg/finance-store-go/internal/config"
	"github.com/boddenberg/finance-store-go/internal/infra/observability"
)

var (
	envFile string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fintrack",
	Short: "Local personal-finance store",
	Long: `fintrack keeps accounts, transactions, budgets, investments and goals in a
schema-validated local store and derives balances, budget progress, goal
completion and spending analytics from them.

Configuration comes from environment variables, optionally loaded from a
.env file. Run "fintrack serve" to start the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// --- Load .env file (for local development) ---
		if err := config.LoadDotEnv(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}

		// --- Config ---
		cfg = config.Load()
		if err := cfg.Validate(); err != nil {
			return err
		}

		// --- Logger ---
		logger = observability.NewLogger(cfg.LogLevel)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.AddCommand(serveCmd, summaryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
