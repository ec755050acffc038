package types

// ProductStatus is the review lifecycle state of a single product
type ProductStatus string

// ProductStatus constants
const (
	ProductEnriched ProductStatus = "enriched"
	ProductEdited   ProductStatus = "edited"
	ProductApproved ProductStatus = "approved"
	ProductFailed   ProductStatus = "failed"
)

// DefaultEnrichmentStatus is recorded when the enrichment response does not carry one
const DefaultEnrichmentStatus = "complete"

// DescriptionData holds generated titles and copy
type DescriptionData struct {
	ProductTitle     string   `json:"product_title"`
	ShortDescription string   `json:"short_description"`
	LongDescription  string   `json:"long_description"`
	SellingPoints    []string `json:"selling_points"`
}

// CategorizationData holds the taxonomy placement of a product
type CategorizationData struct {
	PrimaryCategory     string   `json:"primary_category"`
	TaxonomyPath        string   `json:"taxonomy_path"`
	SecondaryCategories []string `json:"secondary_categories"`
	Tags                []string `json:"tags"`
	ProductType         string   `json:"product_type"`
}

// PhysicalAttributes are the fixed physical properties extracted for a product
type PhysicalAttributes struct {
	Dimensions string `json:"dimensions"`
	Weight     string `json:"weight"`
	Size       string `json:"size"`
	Color      string `json:"color"`
	Material   string `json:"material"`
}

// KeyValue is a generic attribute entry
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// VariantAttribute lists the selectable options of one variant dimension
type VariantAttribute struct {
	Attribute string   `json:"attribute"`
	Options   []string `json:"options"`
}

// AttributeData holds extracted attributes
type AttributeData struct {
	PhysicalAttributes   PhysicalAttributes `json:"physical_attributes"`
	TechnicalSpecs       []KeyValue         `json:"technical_specs"`
	VariantAttributes    []VariantAttribute `json:"variant_attributes"`
	AdditionalAttributes []KeyValue         `json:"additional_attributes"`
}

// FAQ is a generated question/answer pair
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SEOData holds search metadata
type SEOData struct {
	MetaTitle          string   `json:"meta_title"`
	MetaDescription    string   `json:"meta_description"`
	FAQContent         []FAQ    `json:"faq_content"`
	JSONLDMarkup       string   `json:"json_ld_markup"`
	RichSnippetContent string   `json:"rich_snippet_content"`
	SEOScore           *float64 `json:"seo_score,omitempty"`
}

// EnrichedProduct is one catalog row together with its enrichment outcome
type EnrichedProduct struct {
	ID                 string              `json:"id"`
	OriginalData       RawRecord           `json:"originalData"`
	Status             ProductStatus       `json:"status"`
	ProductName        string              `json:"product_name,omitempty"`
	EnrichmentStatus   string              `json:"enrichment_status,omitempty"`
	DescriptionData    *DescriptionData    `json:"description_data,omitempty"`
	CategorizationData *CategorizationData `json:"categorization_data,omitempty"`
	AttributeData      *AttributeData      `json:"attribute_data,omitempty"`
	SEOData            *SEOData            `json:"seo_data,omitempty"`
}

// Clone returns a deep copy of the product
func (p EnrichedProduct) Clone() EnrichedProduct {
	out := p
	out.OriginalData = p.OriginalData.Clone()
	if p.DescriptionData != nil {
		d := *p.DescriptionData
		d.SellingPoints = cloneStrings(d.SellingPoints)
		out.DescriptionData = &d
	}
	if p.CategorizationData != nil {
		c := *p.CategorizationData
		c.SecondaryCategories = cloneStrings(c.SecondaryCategories)
		c.Tags = cloneStrings(c.Tags)
		out.CategorizationData = &c
	}
	if p.AttributeData != nil {
		a := *p.AttributeData
		a.TechnicalSpecs = cloneKeyValues(a.TechnicalSpecs)
		a.AdditionalAttributes = cloneKeyValues(a.AdditionalAttributes)
		if a.VariantAttributes != nil {
			variants := make([]VariantAttribute, len(a.VariantAttributes))
			for i, v := range a.VariantAttributes {
				variants[i] = VariantAttribute{Attribute: v.Attribute, Options: cloneStrings(v.Options)}
			}
			a.VariantAttributes = variants
		}
		out.AttributeData = &a
	}
	if p.SEOData != nil {
		s := *p.SEOData
		if s.FAQContent != nil {
			s.FAQContent = append([]FAQ(nil), s.FAQContent...)
		}
		if s.SEOScore != nil {
			score := *s.SEOScore
			s.SEOScore = &score
		}
		out.SEOData = &s
	}
	return out
}

// CloneProducts deep-copies a product slice
func CloneProducts(products []EnrichedProduct) []EnrichedProduct {
	if products == nil {
		return nil
	}
	out := make([]EnrichedProduct, len(products))
	for i, p := range products {
		out[i] = p.Clone()
	}
	return out
}

// DisplayName is the name used in exports and notifications:
// product_name, then the generated title, then the first source value.
func (p EnrichedProduct) DisplayName() string {
	if p.ProductName != "" {
		return p.ProductName
	}
	if p.DescriptionData != nil && p.DescriptionData.ProductTitle != "" {
		return p.DescriptionData.ProductTitle
	}
	return p.OriginalData.FirstValue()
}

// SEOBand buckets an SEO score for list display
func SEOBand(score float64) string {
	switch {
	case score >= 70:
		return "good"
	case score >= 50:
		return "fair"
	default:
		return "poor"
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneKeyValues(in []KeyValue) []KeyValue {
	if in == nil {
		return nil
	}
	return append([]KeyValue(nil), in...)
}
