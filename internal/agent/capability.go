// Package agent defines the remote capabilities the enrichment pipeline calls
// and the transports that reach them.
package agent

import (
	"context"
	"fmt"

	"github.com/jonathan/catalog-enricher/internal/types"
)

// Enricher enriches a single product record
type Enricher interface {
	Enrich(ctx context.Context, req Request) (*types.EnrichmentResult, error)
}

// ExportNotifier is told which products were exported. Callers ignore the outcome.
type ExportNotifier interface {
	NotifyExport(ctx context.Context, notice ExportNotice) error
}

// Request is the enrichment payload for one record
type Request struct {
	ProductData     types.RawRecord   `json:"product_data"`
	BrandTone       string            `json:"brand_tone"`
	EnrichmentTypes []types.FacetType `json:"enrichment_types"`
	// TaxonomyPreference is left empty for automatic taxonomy selection
	TaxonomyPreference types.TaxonomyPreference `json:"taxonomy_preference,omitempty"`
}

// NewRequest builds the payload for rec under cfg
func NewRequest(rec types.RawRecord, cfg types.EnrichmentConfig) Request {
	req := Request{
		ProductData:     rec,
		BrandTone:       cfg.EffectiveBrandTone(),
		EnrichmentTypes: cfg.EnabledTypes(),
	}
	if tax := cfg.EffectiveTaxonomy(); tax != types.TaxonomyAuto {
		req.TaxonomyPreference = tax
	}
	return req
}

// ExportNotice lists the products included in an export
type ExportNotice struct {
	ApprovedProducts []ExportedProduct `json:"approved_products"`
}

// ExportedProduct is the facet-only projection of an exported product
type ExportedProduct struct {
	ProductName        string                    `json:"product_name"`
	DescriptionData    *types.DescriptionData    `json:"description_data,omitempty"`
	CategorizationData *types.CategorizationData `json:"categorization_data,omitempty"`
	AttributeData      *types.AttributeData      `json:"attribute_data,omitempty"`
	SEOData            *types.SEOData            `json:"seo_data,omitempty"`
}

// CallError is returned when a remote agent call fails or reports failure
type CallError struct {
	AgentID    string
	StatusCode int
	Message    string
	Cause      error
}

func (e *CallError) Error() string {
	msg := fmt.Sprintf("agent %s: %s", e.AgentID, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (http %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *CallError) Unwrap() error {
	return e.Cause
}
