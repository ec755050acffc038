package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/catalog-enricher/internal/types"
)

func TestNewRequest(t *testing.T) {
	rec := types.NewRawRecord("name", "Chair", "price", "10")

	t.Run("defaults", func(t *testing.T) {
		req := NewRequest(rec, types.EnrichmentConfig{Descriptions: true, SEO: true})

		data, err := json.Marshal(req)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"product_data": {"name": "Chair", "price": "10"},
			"brand_tone": "professional and compelling",
			"enrichment_types": ["descriptions", "seo"]
		}`, string(data))
	})

	t.Run("explicit taxonomy is sent", func(t *testing.T) {
		cfg := types.DefaultEnrichmentConfig()
		cfg.BrandTone = "playful"
		cfg.TaxonomyPreference = types.TaxonomyGoogle

		req := NewRequest(rec, cfg)
		assert.Equal(t, "playful", req.BrandTone)
		assert.Equal(t, types.TaxonomyGoogle, req.TaxonomyPreference)
		assert.Equal(t, types.AllFacets, req.EnrichmentTypes)
	})

	t.Run("auto taxonomy is omitted", func(t *testing.T) {
		req := NewRequest(rec, types.DefaultEnrichmentConfig())
		data, err := json.Marshal(req)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "taxonomy_preference")
	})
}

func TestExportNotice_OmitsAbsentFacets(t *testing.T) {
	notice := ExportNotice{ApprovedProducts: []ExportedProduct{{
		ProductName:     "Chair",
		DescriptionData: &types.DescriptionData{ProductTitle: "Chair"},
	}}}

	data, err := json.Marshal(notice)
	require.NoError(t, err)

	var decoded map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	product := decoded["approved_products"][0]
	assert.Equal(t, "Chair", product["product_name"])
	assert.Contains(t, product, "description_data")
	assert.NotContains(t, product, "seo_data")
}

func TestCallError(t *testing.T) {
	err := &CallError{AgentID: "enrich", StatusCode: 502, Message: "bad gateway"}
	assert.Equal(t, "agent enrich: bad gateway (http 502)", err.Error())
	assert.Nil(t, err.Unwrap())
}
