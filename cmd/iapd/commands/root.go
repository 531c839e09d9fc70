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
	Use:   "iapd",
	Short: "Adviser filing normalization and risk scoring",
	Long: `Adviser Watch Unified CLI

Normalizes the monthly adviser registration compilations into a canonical
filing history and scores every firm for regulatory review risk.

Pipeline stages: fetch -> extract -> ingest -> score -> api.

Usage:
  go run ./cmd/iapd [command]

Examples:
  go run ./cmd/iapd fetch
  go run ./cmd/iapd ingest
  go run ./cmd/iapd score
  go run ./cmd/iapd api
  go run ./cmd/iapd scheduler start`,
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
