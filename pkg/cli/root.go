// Package cli implements the fauxsmith command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the --config persistent flag.
	configPath string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "fauxsmith",
	Short: "fauxsmith is a mock API authoring and serving platform",
	Long: `fauxsmith lets users author HTTP response fixtures and mock auth flows,
then serves them publicly: filterable, pageable collections with simulated
delays and failures, plus per-endpoint signup/login against a field schema.

Configuration can be provided via flags, environment variables, or a YAML
configuration file passed with --config.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. Called once from main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration file")
}
