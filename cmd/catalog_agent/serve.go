package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/catalog-enricher/internal/config"
	"github.com/jonathan/catalog-enricher/internal/db"
	"github.com/jonathan/catalog-enricher/internal/server"
)

var (
	servePort       int
	serveConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for uploading catalogs, tracking enrichment jobs, reviewing results and exporting them.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", config.DefaultPort, "Port to listen on")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(serveConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	database, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("failed to open job store: %w", err)
	}
	defer database.Close()

	caps, err := buildCapabilities(ctx, cfg)
	if err != nil {
		return err
	}
	defer caps.close() //nolint:errcheck

	srv, err := server.New(server.Config{
		Port:          cfg.Port,
		DB:            database,
		Enricher:      caps.enricher,
		Notifier:      caps.notifier,
		Concurrency:   cfg.Concurrency,
		NotifyTimeout: notifyTimeout(cfg),
		Enrichment:    cfg.EnrichmentConfig(),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// resolveConfig loads the optional config file and layers it over the
// environment and the built-in defaults
func resolveConfig(path string) (config.Config, error) {
	var file *config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		file = loaded
	}

	cfg := config.Resolve(file)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
