package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/catalog-enricher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, `{
		"port": 9090,
		"agent_base_url": "https://agents.example.com",
		"enrichment_agent_id": "enrich-1",
		"concurrency": 4,
		"format": "json",
		"verbose": true,
		"enrichment": {"descriptions": true, "seo": true, "brandTone": "playful", "taxonomyPreference": "google"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "https://agents.example.com", cfg.AgentBaseURL)
	assert.Equal(t, "enrich-1", cfg.EnrichmentAgentID)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.Verbose)
	require.NotNil(t, cfg.Enrichment)
	assert.Equal(t, []types.FacetType{types.FacetDescriptions, types.FacetSEO}, cfg.Enrichment.EnabledTypes())
	assert.Equal(t, types.TaxonomyGoogle, cfg.Enrichment.TaxonomyPreference)
}

func TestLoadConfig_Errors(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{ invalid json }`))
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config JSON")

	cfg, err = LoadConfig("/nonexistent/path/config.json")
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	cfg, err = LoadConfig("")
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate(t *testing.T) {
	badTaxonomy := types.DefaultEnrichmentConfig()
	badTaxonomy.TaxonomyPreference = "amazon"

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty", cfg: Config{}},
		{name: "defaults", cfg: Defaults()},
		{name: "negative concurrency", cfg: Config{Concurrency: -1}, wantErr: "concurrency"},
		{name: "port out of range", cfg: Config{Port: 70000}, wantErr: "port"},
		{name: "negative notify timeout", cfg: Config{NotifyTimeoutSeconds: -5}, wantErr: "notify_timeout_seconds"},
		{name: "unknown format", cfg: Config{Format: "xml"}, wantErr: "format"},
		{name: "agent id without base url", cfg: Config{EnrichmentAgentID: "a"}, wantErr: "agent_base_url"},
		{name: "invalid enrichment", cfg: Config{Enrichment: &badTaxonomy}, wantErr: "enrichment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	partial := Config{
		AgentBaseURL: "https://custom.example.com",
		Concurrency:  3,
	}

	merged := partial.MergeWithDefaults(Defaults())

	assert.Equal(t, "https://custom.example.com", merged.AgentBaseURL)
	assert.Equal(t, 3, merged.Concurrency)

	assert.Equal(t, DefaultPort, merged.Port)
	assert.Equal(t, DefaultFormat, merged.Format)
	assert.Equal(t, DefaultOutDir, merged.OutDir)
	assert.Equal(t, DefaultDatabaseDSN, merged.DatabaseDSN)
	assert.Equal(t, DefaultNotifyTimeoutSeconds, merged.NotifyTimeoutSeconds)
	require.NotNil(t, merged.Enrichment)
	assert.Equal(t, types.AllFacets, merged.Enrichment.EnabledTypes())
}

func TestMergeWithDefaults_DoesNotAliasEnrichment(t *testing.T) {
	defaults := Defaults()
	merged := (&Config{}).MergeWithDefaults(defaults)

	merged.Enrichment.SEO = false
	assert.True(t, defaults.Enrichment.SEO)
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvGeminiAPIKey, "gem-key")
	t.Setenv(EnvAgentBaseURL, "https://agents.example.com")
	t.Setenv(EnvAgentAPIKey, "agent-key")
	t.Setenv(EnvEnrichmentAgentID, "enrich-1")
	t.Setenv(EnvExportAgentID, "export-1")
	t.Setenv(EnvConcurrency, "6")
	t.Setenv(EnvPort, "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, "gem-key", cfg.APIKey)
	assert.Equal(t, "https://agents.example.com", cfg.AgentBaseURL)
	assert.Equal(t, "agent-key", cfg.AgentAPIKey)
	assert.Equal(t, "enrich-1", cfg.EnrichmentAgentID)
	assert.Equal(t, "export-1", cfg.ExportAgentID)
	assert.Equal(t, 6, cfg.Concurrency)
	assert.Zero(t, cfg.Port)
	assert.True(t, cfg.UsesAgentPlatform())
}

func TestResolve_FileOverridesEnv(t *testing.T) {
	t.Setenv(EnvAgentBaseURL, "https://env.example.com")
	t.Setenv(EnvEnrichmentAgentID, "")
	t.Setenv(EnvConcurrency, "2")

	resolved := Resolve(&Config{AgentBaseURL: "https://file.example.com"})
	assert.Equal(t, "https://file.example.com", resolved.AgentBaseURL)
	assert.Equal(t, 2, resolved.Concurrency)
	assert.Equal(t, DefaultPort, resolved.Port)
	assert.False(t, resolved.UsesAgentPlatform())

	assert.Equal(t, "https://env.example.com", Resolve(nil).AgentBaseURL)
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("EXPORT_AGENT_ID=from-dotenv\n"), 0644))
	t.Setenv(EnvExportAgentID, "")
	require.NoError(t, os.Unsetenv(EnvExportAgentID))

	LoadEnv(path)
	assert.Equal(t, "from-dotenv", os.Getenv(EnvExportAgentID))

	LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
}

func TestEnrichmentConfig(t *testing.T) {
	assert.Equal(t, types.DefaultEnrichmentConfig(), (&Config{}).EnrichmentConfig())

	custom := types.EnrichmentConfig{SEO: true}
	assert.Equal(t, custom, (&Config{Enrichment: &custom}).EnrichmentConfig())
}
