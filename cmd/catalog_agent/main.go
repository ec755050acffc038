// Package main provides the entry point for the catalog enrichment CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/catalog-enricher/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "catalog_agent",
	Short: "Catalog enrichment CLI and HTTP API server",
	Long:  "catalog_agent enriches product catalogs (CSV or JSON) with descriptions, categorization, attributes and SEO metadata, then exports the reviewed result as CSV or JSON.",
}

func main() {
	// Load .env file if it exists
	config.LoadEnv()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
