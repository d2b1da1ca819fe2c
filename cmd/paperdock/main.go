// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paperdock CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperdock/internal/config"
	"github.com/pdiddy/paperdock/internal/secrets"
	"github.com/pdiddy/paperdock/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the paperdock CLI.
var rootCmd = &cobra.Command{
	Use:   "paperdock",
	Short: "Locate downloadable copies of scholarly works",
	Long: `paperdock searches CrossRef and arXiv for scholarly works matching a
free-text query, DOI, or arXiv ID, merges the results into one ranked list,
and resolves each candidate to a downloadable link through a mirror network
and publisher page analysis.

Run a one-shot query with "search", or start the streaming HTTP API with
"serve".`,
}

// loadConfig reads the config file named by --config (or the default
// discovery paths) and applies secret overrides.
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, err
	}

	loaded, err := secrets.Load(".secrets/")
	if err != nil {
		return cfg, err
	}
	if v, ok := loaded["crossref-mailto"]; ok {
		cfg.CrossRef.Mailto = v
	}
	if v, ok := loaded["nlp-base-url"]; ok {
		cfg.NLP.BaseURL = v
	}

	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paperdock.yaml or ~/.config/paperdock/config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
