package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	contractsFile string
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "evlq",
	Short: "EV charging site data quality tracker",
	Long: `evlq Unified CLI

Tracks every fetch from the EV-site data sources, validates payloads
against their data contracts and keeps source health up to date.

Usage:
  go run ./cmd/evlq [command]

Examples:
  go run ./cmd/evlq init-db
  go run ./cmd/evlq serve
  go run ./cmd/evlq validate entsoe payload.json
  go run ./cmd/evlq track openchargemap https://api.openchargemap.io/v3/poi
  go run ./cmd/evlq health`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&contractsFile, "contracts", "", "extra contracts YAML file (overrides CONTRACTS_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
