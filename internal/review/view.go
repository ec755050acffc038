package review

import "github.com/jonathan/catalog-enricher/internal/types"

// ProductView is a product as shown in the review list
type ProductView struct {
	types.EnrichedProduct
	Selected       bool   `json:"selected"`
	Expanded       bool   `json:"expanded"`
	AttributeCount int    `json:"attribute_count"`
	SEOBand        string `json:"seo_band,omitempty"`
}

// State is a snapshot of the whole review session
type State struct {
	JobID       string        `json:"job_id"`
	Products    []ProductView `json:"products"`
	Selected    int           `json:"selected"`
	AllSelected bool          `json:"all_selected"`
	Expanded    string        `json:"expanded,omitempty"`
	Dirty       bool          `json:"dirty"`
}

// Snapshot returns the current review state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]ProductView, 0, len(s.products))
	for _, p := range s.products {
		_, selected := s.selection[p.ID]
		view := ProductView{
			EnrichedProduct: p.Clone(),
			Selected:        selected,
			Expanded:        p.ID == s.expanded,
			AttributeCount:  AttributeCount(p),
		}
		if p.SEOData != nil && p.SEOData.SEOScore != nil {
			view.SEOBand = types.SEOBand(*p.SEOData.SEOScore)
		}
		views = append(views, view)
	}

	return State{
		JobID:       s.jobID,
		Products:    views,
		Selected:    len(s.selection),
		AllSelected: s.allSelected(),
		Expanded:    s.expanded,
		Dirty:       s.dirty,
	}
}
