package catalog

import "github.com/jonathan/catalog-enricher/internal/types"

// SampleRecords returns the built-in demo catalog used in sample mode
func SampleRecords() []types.RawRecord {
	return []types.RawRecord{
		types.NewRawRecord("name", "Ergonomic Office Chair", "sku", "EOC-2024", "price", "349.99", "brand", "ProComfort"),
		types.NewRawRecord("name", "Wireless Noise-Canceling Headphones", "sku", "WNC-500", "price", "199.99", "brand", "SonicPure"),
		types.NewRawRecord("name", "Organic Green Tea Matcha", "sku", "OGT-100", "price", "24.99", "brand", "ZenLeaf"),
	}
}
