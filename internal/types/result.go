package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EnrichmentResult is the structured payload returned by the enrichment agent.
// Facets are nil when the agent omitted them or returned something other than
// an object.
type EnrichmentResult struct {
	ProductName        *string             `json:"product_name,omitempty"`
	EnrichmentStatus   *string             `json:"enrichment_status,omitempty"`
	DescriptionData    *DescriptionData    `json:"description_data,omitempty"`
	CategorizationData *CategorizationData `json:"categorization_data,omitempty"`
	AttributeData      *AttributeData      `json:"attribute_data,omitempty"`
	SEOData            *SEOData            `json:"seo_data,omitempty"`
}

// DecodeEnrichmentResult decodes an agent result without validating its
// schema. Only a non-object root is an error; malformed fields decode to
// their zero value.
func DecodeEnrichmentResult(data []byte) (*EnrichmentResult, error) {
	f, err := objectFields(data)
	if err != nil {
		return nil, fmt.Errorf("enrichment result: %w", err)
	}

	result := &EnrichmentResult{
		ProductName:      f.optionalString("product_name"),
		EnrichmentStatus: f.optionalString("enrichment_status"),
	}
	if sub, ok := f.object("description_data"); ok {
		result.DescriptionData = decodeDescription(sub)
	}
	if sub, ok := f.object("categorization_data"); ok {
		result.CategorizationData = decodeCategorization(sub)
	}
	if sub, ok := f.object("attribute_data"); ok {
		result.AttributeData = decodeAttributes(sub)
	}
	if sub, ok := f.object("seo_data"); ok {
		result.SEOData = decodeSEO(sub)
	}
	return result, nil
}

// UnmarshalJSON decodes leniently; see DecodeEnrichmentResult
func (r *EnrichmentResult) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeEnrichmentResult(data)
	if err != nil {
		return err
	}
	*r = *decoded
	return nil
}

// UnmarshalJSON decodes leniently
func (d *DescriptionData) UnmarshalJSON(data []byte) error {
	f, err := objectFields(data)
	if err != nil {
		return err
	}
	*d = *decodeDescription(f)
	return nil
}

// UnmarshalJSON decodes leniently
func (c *CategorizationData) UnmarshalJSON(data []byte) error {
	f, err := objectFields(data)
	if err != nil {
		return err
	}
	*c = *decodeCategorization(f)
	return nil
}

// UnmarshalJSON decodes leniently
func (a *AttributeData) UnmarshalJSON(data []byte) error {
	f, err := objectFields(data)
	if err != nil {
		return err
	}
	*a = *decodeAttributes(f)
	return nil
}

// UnmarshalJSON decodes leniently
func (s *SEOData) UnmarshalJSON(data []byte) error {
	f, err := objectFields(data)
	if err != nil {
		return err
	}
	*s = *decodeSEO(f)
	return nil
}

func decodeDescription(f fields) *DescriptionData {
	return &DescriptionData{
		ProductTitle:     f.str("product_title"),
		ShortDescription: f.str("short_description"),
		LongDescription:  f.str("long_description"),
		SellingPoints:    f.strings("selling_points"),
	}
}

func decodeCategorization(f fields) *CategorizationData {
	return &CategorizationData{
		PrimaryCategory:     f.str("primary_category"),
		TaxonomyPath:        f.str("taxonomy_path"),
		SecondaryCategories: f.strings("secondary_categories"),
		Tags:                f.strings("tags"),
		ProductType:         f.str("product_type"),
	}
}

func decodeAttributes(f fields) *AttributeData {
	attrs := &AttributeData{
		TechnicalSpecs:       f.keyValues("technical_specs"),
		AdditionalAttributes: f.keyValues("additional_attributes"),
	}
	if phys, ok := f.object("physical_attributes"); ok {
		attrs.PhysicalAttributes = PhysicalAttributes{
			Dimensions: phys.str("dimensions"),
			Weight:     phys.str("weight"),
			Size:       phys.str("size"),
			Color:      phys.str("color"),
			Material:   phys.str("material"),
		}
	}
	for _, item := range f.objects("variant_attributes") {
		attrs.VariantAttributes = append(attrs.VariantAttributes, VariantAttribute{
			Attribute: item.str("attribute"),
			Options:   item.strings("options"),
		})
	}
	return attrs
}

func decodeSEO(f fields) *SEOData {
	seo := &SEOData{
		MetaTitle:          f.str("meta_title"),
		MetaDescription:    f.str("meta_description"),
		JSONLDMarkup:       f.str("json_ld_markup"),
		RichSnippetContent: f.str("rich_snippet_content"),
		SEOScore:           f.number("seo_score"),
	}
	for _, item := range f.objects("faq_content") {
		seo.FAQContent = append(seo.FAQContent, FAQ{
			Question: item.str("question"),
			Answer:   item.str("answer"),
		})
	}
	return seo
}

// fields is a decoded JSON object whose members are read one at a time
type fields map[string]json.RawMessage

func objectFields(data []byte) (fields, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}
	var f fields
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return nil, err
	}
	return f, nil
}

func (f fields) str(key string) string {
	var s string
	if raw, ok := f[key]; ok {
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
	}
	return s
}

func (f fields) optionalString(key string) *string {
	raw, ok := f[key]
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return &s
}

func (f fields) strings(key string) []string {
	var items []json.RawMessage
	if raw, ok := f[key]; !ok || json.Unmarshal(raw, &items) != nil || items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func (f fields) number(key string) *float64 {
	raw, ok := f[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}
	return &n
}

func (f fields) object(key string) (fields, bool) {
	raw, ok := f[key]
	if !ok {
		return nil, false
	}
	sub, err := objectFields(raw)
	if err != nil {
		return nil, false
	}
	return sub, true
}

func (f fields) objects(key string) []fields {
	var items []json.RawMessage
	if raw, ok := f[key]; !ok || json.Unmarshal(raw, &items) != nil || items == nil {
		return nil
	}
	out := make([]fields, 0, len(items))
	for _, item := range items {
		if sub, err := objectFields(item); err == nil {
			out = append(out, sub)
		}
	}
	return out
}

func (f fields) keyValues(key string) []KeyValue {
	objs := f.objects(key)
	if objs == nil {
		return nil
	}
	out := make([]KeyValue, 0, len(objs))
	for _, item := range objs {
		out = append(out, KeyValue{Key: item.str("key"), Value: item.str("value")})
	}
	return out
}
