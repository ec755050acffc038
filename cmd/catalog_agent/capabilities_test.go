package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/catalog-enricher/internal/agent"
	"github.com/jonathan/catalog-enricher/internal/config"
)

func TestBuildCapabilities_AgentPlatform(t *testing.T) {
	cfg := config.Defaults()
	cfg.AgentBaseURL = "http://agents.internal"
	cfg.EnrichmentAgentID = "enrich-1"
	cfg.ExportAgentID = "export-1"

	caps, err := buildCapabilities(context.Background(), cfg)
	require.NoError(t, err)
	defer caps.close() //nolint:errcheck

	_, isPlatform := caps.enricher.(*agent.HTTPClient)
	assert.True(t, isPlatform)
	_, notifiesPlatform := caps.notifier.(*agent.HTTPClient)
	assert.True(t, notifiesPlatform)
}

func TestBuildCapabilities_NotifierWithoutExportAgent(t *testing.T) {
	cfg := config.Defaults()
	cfg.AgentBaseURL = "http://agents.internal"
	cfg.EnrichmentAgentID = "enrich-1"

	caps, err := buildCapabilities(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, agent.NopNotifier{}, caps.notifier)
}

func TestBuildCapabilities_RequiresKeyOrPlatform(t *testing.T) {
	cfg := config.Defaults()
	cfg.AgentBaseURL = "http://agents.internal"
	cfg.ExportAgentID = "export-1"

	_, err := buildCapabilities(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestNotifyTimeout(t *testing.T) {
	cfg := config.Defaults()
	assert.Equal(t, 30*time.Second, notifyTimeout(cfg))

	cfg.NotifyTimeoutSeconds = 5
	assert.Equal(t, 5*time.Second, notifyTimeout(cfg))
}
