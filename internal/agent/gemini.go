package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/catalog-enricher/internal/ingestion"
	"github.com/jonathan/catalog-enricher/internal/llm"
	"github.com/jonathan/catalog-enricher/internal/prompts"
	"github.com/jonathan/catalog-enricher/internal/types"
)

const promptFile = "enrichment.json"

// GeminiEnricher enriches products in-process with a generative model instead
// of a remote agent.
type GeminiEnricher struct {
	client llm.Client
}

// NewGeminiEnricher wraps client
func NewGeminiEnricher(client llm.Client) *GeminiEnricher {
	return &GeminiEnricher{client: client}
}

// Enrich renders the enrichment prompt for req and decodes the model output
func (g *GeminiEnricher) Enrich(ctx context.Context, req Request) (*types.EnrichmentResult, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, err
	}

	tier := llm.TierStandard
	if len(req.EnrichmentTypes) == 1 {
		tier = llm.TierLite
	}

	text, err := g.client.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		return nil, fmt.Errorf("failed to generate enrichment: %w", err)
	}

	result, err := types.DecodeEnrichmentResult([]byte(llm.CleanJSONBlock(text)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode enrichment: %w", err)
	}
	return result, nil
}

// BuildPrompt renders the enrichment prompt. HTML in record values is reduced
// to plain text first.
func BuildPrompt(req Request) (string, error) {
	productData, err := json.MarshalIndent(ingestion.PrepareRecord(req.ProductData), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode product data: %w", err)
	}

	names := make([]string, 0, len(req.EnrichmentTypes))
	for _, facet := range req.EnrichmentTypes {
		names = append(names, string(facet))
	}
	enrichmentTypes := strings.Join(names, ", ")
	if enrichmentTypes == "" {
		enrichmentTypes = "none"
	}

	taxonomy := ""
	if req.TaxonomyPreference != "" {
		taxonomy, err = prompts.Render(promptFile, "taxonomy-hint", map[string]string{
			"Taxonomy": string(req.TaxonomyPreference),
		})
		if err != nil {
			return "", err
		}
	}

	return prompts.Render(promptFile, "enrich-product", map[string]string{
		"ProductData":     string(productData),
		"BrandTone":       req.BrandTone,
		"EnrichmentTypes": enrichmentTypes,
		"Taxonomy":        taxonomy,
	})
}
