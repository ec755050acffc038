// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/jonathan/catalog-enricher/internal/types"
)

// Environment variable names read by FromEnv
const (
	EnvGeminiAPIKey      = "GEMINI_API_KEY"
	EnvAgentBaseURL      = "AGENT_BASE_URL"
	EnvAgentAPIKey       = "AGENT_API_KEY"
	EnvEnrichmentAgentID = "ENRICHMENT_AGENT_ID"
	EnvExportAgentID     = "EXPORT_AGENT_ID"
	EnvConcurrency       = "ENRICH_CONCURRENCY"
	EnvDatabaseDSN       = "DATABASE_DSN"
	EnvPort              = "PORT"
)

// Default values applied by Defaults
const (
	DefaultPort                 = 8080
	DefaultConcurrency          = 1
	DefaultAgentTimeoutSeconds  = 90
	DefaultNotifyTimeoutSeconds = 30
	DefaultFormat               = "csv"
	DefaultOutDir               = "."
	DefaultDatabaseDSN          = ":memory:"
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values come from the environment, CLI flags or defaults.
type Config struct {
	// Server
	Port        int    `json:"port,omitempty"`
	DatabaseDSN string `json:"database_dsn,omitempty"` // SQLite DSN for the session job store

	// Enrichment capability. An agent platform is used when a base URL and an
	// enrichment agent id are set; otherwise Gemini is called directly.
	APIKey               string `json:"api_key,omitempty"` // Gemini API key
	AgentBaseURL         string `json:"agent_base_url,omitempty"`
	AgentAPIKey          string `json:"agent_api_key,omitempty"`
	EnrichmentAgentID    string `json:"enrichment_agent_id,omitempty"`
	ExportAgentID        string `json:"export_agent_id,omitempty"`
	AgentTimeoutSeconds  int    `json:"agent_timeout_seconds,omitempty"`
	NotifyTimeoutSeconds int    `json:"notify_timeout_seconds,omitempty"`

	// Run
	Concurrency int                     `json:"concurrency,omitempty"` // Products enriched in parallel (1 = sequential)
	Enrichment  *types.EnrichmentConfig `json:"enrichment,omitempty"`  // Default enrichment configuration

	// Export
	Format string `json:"format,omitempty"`  // csv or json
	OutDir string `json:"out_dir,omitempty"` // Directory export files are written to

	Verbose bool `json:"verbose,omitempty"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// LoadEnv loads .env files into the process environment. Missing files are ignored.
func LoadEnv(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

// FromEnv builds a Config from environment variables. Unset or malformed
// values are left at their zero value.
func FromEnv() Config {
	return Config{
		Port:              envInt(EnvPort),
		DatabaseDSN:       os.Getenv(EnvDatabaseDSN),
		APIKey:            os.Getenv(EnvGeminiAPIKey),
		AgentBaseURL:      os.Getenv(EnvAgentBaseURL),
		AgentAPIKey:       os.Getenv(EnvAgentAPIKey),
		EnrichmentAgentID: os.Getenv(EnvEnrichmentAgentID),
		ExportAgentID:     os.Getenv(EnvExportAgentID),
		Concurrency:       envInt(EnvConcurrency),
	}
}

// Defaults returns the built-in configuration
func Defaults() Config {
	enrichment := types.DefaultEnrichmentConfig()
	return Config{
		Port:                 DefaultPort,
		DatabaseDSN:          DefaultDatabaseDSN,
		AgentTimeoutSeconds:  DefaultAgentTimeoutSeconds,
		NotifyTimeoutSeconds: DefaultNotifyTimeoutSeconds,
		Concurrency:          DefaultConcurrency,
		Enrichment:           &enrichment,
		Format:               DefaultFormat,
		OutDir:               DefaultOutDir,
	}
}

// Resolve layers the file config over the environment over the built-in defaults
func Resolve(file *Config) Config {
	env := FromEnv()
	merged := env.MergeWithDefaults(Defaults())
	if file == nil {
		return merged
	}
	return file.MergeWithDefaults(merged)
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("config error: 'concurrency' must be non-negative")
	}
	if c.AgentTimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'agent_timeout_seconds' must be non-negative")
	}
	if c.NotifyTimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'notify_timeout_seconds' must be non-negative")
	}

	switch c.Format {
	case "", "csv", "json":
	default:
		return fmt.Errorf("config error: 'format' must be csv or json, got %q", c.Format)
	}

	if c.EnrichmentAgentID != "" && c.AgentBaseURL == "" {
		return fmt.Errorf("config error: 'enrichment_agent_id' requires 'agent_base_url'")
	}

	if c.Enrichment != nil {
		if err := c.Enrichment.Validate(); err != nil {
			return fmt.Errorf("config error: invalid enrichment config: %w", err)
		}
	}

	return nil
}

// UsesAgentPlatform reports whether enrichment goes through the agent platform
func (c *Config) UsesAgentPlatform() bool {
	return c.AgentBaseURL != "" && c.EnrichmentAgentID != ""
}

// EnrichmentConfig returns the configured enrichment settings or the defaults
func (c *Config) EnrichmentConfig() types.EnrichmentConfig {
	if c.Enrichment == nil {
		return types.DefaultEnrichmentConfig()
	}
	return *c.Enrichment
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseDSN == "" {
		result.DatabaseDSN = defaults.DatabaseDSN
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.AgentBaseURL == "" {
		result.AgentBaseURL = defaults.AgentBaseURL
	}
	if result.AgentAPIKey == "" {
		result.AgentAPIKey = defaults.AgentAPIKey
	}
	if result.EnrichmentAgentID == "" {
		result.EnrichmentAgentID = defaults.EnrichmentAgentID
	}
	if result.ExportAgentID == "" {
		result.ExportAgentID = defaults.ExportAgentID
	}
	if result.Format == "" {
		result.Format = defaults.Format
	}
	if result.OutDir == "" {
		result.OutDir = defaults.OutDir
	}

	// Int fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.AgentTimeoutSeconds == 0 {
		result.AgentTimeoutSeconds = defaults.AgentTimeoutSeconds
	}
	if result.NotifyTimeoutSeconds == 0 {
		result.NotifyTimeoutSeconds = defaults.NotifyTimeoutSeconds
	}

	if result.Enrichment == nil && defaults.Enrichment != nil {
		enrichment := *defaults.Enrichment
		result.Enrichment = &enrichment
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func envInt(key string) int {
	value := os.Getenv(key)
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
