// Package main provides the cinevec CLI entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pvcastro/cinevec/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// configPath is the optional YAML config file
var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cinevec",
	Short: "Movie semantic search index builder and evaluator",
	Long: `cinevec builds a semantic search index over a movie catalog and
evaluates recommendation quality against it.

The build pipeline normalizes and weights movie text fields, embeds
them, and writes a checksummed JSON artifact. The evaluation pipeline
replays user queries through an external recommender and reports
ranking and genre-similarity metrics. All commands output JSON by
default for easy integration with other tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default cinevec.yaml if present)")
	rootCmd.Version = Version
}

// mustLoadConfig loads the layered configuration or exits.
func mustLoadConfig() *config.Config {
	path := configPath
	if path == "" {
		path = "cinevec.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}
