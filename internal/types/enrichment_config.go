package types

import "github.com/go-playground/validator/v10"

// FacetType names one independently toggleable enrichment bundle
type FacetType string

// FacetType constants, in request order
const (
	FacetDescriptions   FacetType = "descriptions"
	FacetCategorization FacetType = "categorization"
	FacetAttributes     FacetType = "attributes"
	FacetSEO            FacetType = "seo"
)

// AllFacets lists every facet in the order they are sent to the agent
var AllFacets = []FacetType{FacetDescriptions, FacetCategorization, FacetAttributes, FacetSEO}

// TaxonomyPreference selects the category taxonomy the agent should target
type TaxonomyPreference string

// TaxonomyPreference constants
const (
	TaxonomyAuto     TaxonomyPreference = "auto"
	TaxonomyGoogle   TaxonomyPreference = "google"
	TaxonomyFacebook TaxonomyPreference = "facebook"
	TaxonomyCustom   TaxonomyPreference = "custom"
)

// DefaultBrandTone is used when no brand tone is configured
const DefaultBrandTone = "professional and compelling"

// EnrichmentConfig is the per-run enrichment configuration
type EnrichmentConfig struct {
	Descriptions       bool               `json:"descriptions"`
	Categorization     bool               `json:"categorization"`
	Attributes         bool               `json:"attributes"`
	SEO                bool               `json:"seo"`
	BrandTone          string             `json:"brandTone" validate:"max=500"`
	TaxonomyPreference TaxonomyPreference `json:"taxonomyPreference" validate:"omitempty,oneof=auto google facebook custom"`
}

// DefaultEnrichmentConfig enables every facet with automatic taxonomy
func DefaultEnrichmentConfig() EnrichmentConfig {
	return EnrichmentConfig{
		Descriptions:       true,
		Categorization:     true,
		Attributes:         true,
		SEO:                true,
		TaxonomyPreference: TaxonomyAuto,
	}
}

// Validate validates the EnrichmentConfig using the validator.
func (c *EnrichmentConfig) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// Enabled reports whether a facet is switched on
func (c EnrichmentConfig) Enabled(facet FacetType) bool {
	switch facet {
	case FacetDescriptions:
		return c.Descriptions
	case FacetCategorization:
		return c.Categorization
	case FacetAttributes:
		return c.Attributes
	case FacetSEO:
		return c.SEO
	}
	return false
}

// SetEnabled toggles a facet
func (c *EnrichmentConfig) SetEnabled(facet FacetType, on bool) {
	switch facet {
	case FacetDescriptions:
		c.Descriptions = on
	case FacetCategorization:
		c.Categorization = on
	case FacetAttributes:
		c.Attributes = on
	case FacetSEO:
		c.SEO = on
	}
}

// EnabledTypes returns the enabled facets in request order
func (c EnrichmentConfig) EnabledTypes() []FacetType {
	enabled := make([]FacetType, 0, len(AllFacets))
	for _, facet := range AllFacets {
		if c.Enabled(facet) {
			enabled = append(enabled, facet)
		}
	}
	return enabled
}

// EffectiveBrandTone returns the configured tone or the default
func (c EnrichmentConfig) EffectiveBrandTone() string {
	if c.BrandTone == "" {
		return DefaultBrandTone
	}
	return c.BrandTone
}

// EffectiveTaxonomy returns the configured taxonomy or auto
func (c EnrichmentConfig) EffectiveTaxonomy() TaxonomyPreference {
	if c.TaxonomyPreference == "" {
		return TaxonomyAuto
	}
	return c.TaxonomyPreference
}
