// Package export projects reviewed products into downloadable CSV or JSON files.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/catalog-enricher/internal/types"
)

// CSVHeader lists the exported CSV columns
var CSVHeader = []string{
	"Product Name",
	"Title",
	"Short Description",
	"Category",
	"Tags",
	"Color",
	"Material",
	"Meta Title",
	"Meta Description",
	"SEO Score",
}

// Subset returns the products that are selected or approved, in input order
func Subset(products []types.EnrichedProduct, selection map[string]bool) []types.EnrichedProduct {
	out := make([]types.EnrichedProduct, 0, len(products))
	for _, p := range products {
		if selection[p.ID] || p.Status == types.ProductApproved {
			out = append(out, p)
		}
	}
	return out
}

// Record is one element of a JSON export
type Record struct {
	Original types.RawRecord `json:"original"`
	Enriched Enriched        `json:"enriched"`
}

// Enriched is the re-keyed facet view of a JSON export record
type Enriched struct {
	ProductName    string                    `json:"product_name,omitempty"`
	Description    *types.DescriptionData    `json:"description,omitempty"`
	Categorization *types.CategorizationData `json:"categorization,omitempty"`
	Attributes     *types.AttributeData      `json:"attributes,omitempty"`
	SEO            *types.SEOData            `json:"seo,omitempty"`
}

// Records projects products into JSON export records
func Records(products []types.EnrichedProduct) []Record {
	out := make([]Record, 0, len(products))
	for _, p := range products {
		original := p.OriginalData
		if original == nil {
			original = types.RawRecord{}
		}
		out = append(out, Record{
			Original: original,
			Enriched: Enriched{
				ProductName:    p.ProductName,
				Description:    p.DescriptionData,
				Categorization: p.CategorizationData,
				Attributes:     p.AttributeData,
				SEO:            p.SEOData,
			},
		})
	}
	return out
}

// EncodeJSON renders products as a two-space indented JSON array
func EncodeJSON(products []types.EnrichedProduct) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Records(products)); err != nil {
		return nil, fmt.Errorf("failed to encode JSON export: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// EncodeCSV renders products as CSV. The header line is written bare; every
// data field is quoted with inner quotes doubled. Lines are joined with "\n"
// and there is no trailing newline.
func EncodeCSV(products []types.EnrichedProduct) []byte {
	lines := make([]string, 0, len(products)+1)
	lines = append(lines, strings.Join(CSVHeader, ","))

	for _, p := range products {
		row := csvRow(p)
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = quote(v)
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return []byte(strings.Join(lines, "\n"))
}

func csvRow(p types.EnrichedProduct) []string {
	var title, short, category, tags, color, material, metaTitle, metaDesc, seoScore string
	if d := p.DescriptionData; d != nil {
		title = d.ProductTitle
		short = d.ShortDescription
	}
	if c := p.CategorizationData; c != nil {
		category = c.PrimaryCategory
		if c.Tags != nil {
			tags = strings.Join(c.Tags, "; ")
		}
	}
	if a := p.AttributeData; a != nil {
		color = a.PhysicalAttributes.Color
		material = a.PhysicalAttributes.Material
	}
	if s := p.SEOData; s != nil {
		metaTitle = s.MetaTitle
		metaDesc = s.MetaDescription
		if s.SEOScore != nil {
			seoScore = strconv.FormatFloat(*s.SEOScore, 'f', -1, 64)
		}
	}

	return []string{
		p.DisplayName(),
		title,
		short,
		category,
		tags,
		color,
		material,
		metaTitle,
		metaDesc,
		seoScore,
	}
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}
