package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/dietdash/pkg/config"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dietdash",
	Short: "dietdash - nutrition dataset dashboard",
	Long: `dietdash Unified CLI

Serves the nutrition dashboard, runs the offline analysis and the
blob ingestion adapter over the same cleaning and aggregation pipeline.

Usage:
  go run ./cmd/dietdash [command]

Examples:
  go run ./cmd/dietdash api
  go run ./cmd/dietdash analyze --csv All_Diets.csv --out outputs
  go run ./cmd/dietdash ingest --payload All_Diets.csv
  go run ./cmd/dietdash status`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig loads the environment configuration and applies global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
