package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/catalog-enricher/internal/agent"
	"github.com/jonathan/catalog-enricher/internal/config"
	"github.com/jonathan/catalog-enricher/internal/llm"
)

// capabilities are the remote services a run talks to
type capabilities struct {
	enricher agent.Enricher
	notifier agent.ExportNotifier
	close    func() error
}

// buildCapabilities picks the agent platform when it is configured and
// otherwise calls Gemini directly. Export notifications need the platform.
func buildCapabilities(ctx context.Context, cfg config.Config) (*capabilities, error) {
	caps := &capabilities{
		notifier: agent.NopNotifier{},
		close:    func() error { return nil },
	}

	var platform *agent.HTTPClient
	if cfg.AgentBaseURL != "" {
		platform = agent.NewHTTPClient(agent.Config{
			BaseURL:           cfg.AgentBaseURL,
			APIKey:            cfg.AgentAPIKey,
			EnrichmentAgentID: cfg.EnrichmentAgentID,
			ExportAgentID:     cfg.ExportAgentID,
			TimeoutSeconds:    cfg.AgentTimeoutSeconds,
		})
		if cfg.ExportAgentID != "" {
			caps.notifier = platform
		}
	}

	if cfg.UsesAgentPlatform() {
		caps.enricher = platform
		return caps, nil
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable or an agent platform (AGENT_BASE_URL and ENRICHMENT_AGENT_ID) is required")
	}
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, err
	}
	caps.enricher = agent.NewGeminiEnricher(client)
	caps.close = client.Close
	return caps, nil
}

func notifyTimeout(cfg config.Config) time.Duration {
	return time.Duration(cfg.NotifyTimeoutSeconds) * time.Second
}
