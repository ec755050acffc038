package enrichment

import (
	"fmt"
	"strconv"

	"github.com/jonathan/catalog-enricher/internal/types"
)

// TerminalStatus derives the job status from its products: no failures is
// completed, all failed is failed, anything else is partial. An empty
// product list counts as completed.
func TerminalStatus(products []types.EnrichedProduct) types.JobStatus {
	failed := 0
	for _, p := range products {
		if p.Status == types.ProductFailed {
			failed++
		}
	}
	switch {
	case failed == 0:
		return types.JobCompleted
	case failed == len(products):
		return types.JobFailed
	default:
		return types.JobPartial
	}
}

// SummaryMessage is the operator-facing completion line for a finished job
func SummaryMessage(job *types.Job) string {
	return fmt.Sprintf("Enrichment complete: %d of %d products enriched successfully.",
		job.CountByStatus(types.ProductEnriched), len(job.Products))
}

// Label is the best available display name for record i (zero-based) while
// it is being processed.
func Label(rec types.RawRecord, i int) string {
	if v := rec.Value("name"); v != "" {
		return v
	}
	if v := rec.Value("product_name"); v != "" {
		return v
	}
	if v := rec.FirstValue(); v != "" {
		return v
	}
	return "Product " + strconv.Itoa(i+1)
}

// Percent is floor(100*i/total)
func Percent(i, total int) int {
	if total <= 0 {
		return 100
	}
	return 100 * i / total
}
