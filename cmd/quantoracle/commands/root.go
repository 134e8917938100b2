package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quantoracle",
	Short: "EOD cross-sectional equity screener",
	Long: `quantoracle - end-of-day cross-sectional equity screener

Daily batch: ingest vendor OHLCV, build features, train a ridge model,
rank the cross-section, and construct a constrained long/short book.

Usage:
  go run ./cmd/quantoracle [command]

Examples:
  go run ./cmd/quantoracle pipeline
  go run ./cmd/quantoracle rank --n 20
  go run ./cmd/quantoracle api`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
