// Package review holds the interactive review state of a finished job:
// product edits, selection, approval and the expanded detail view.
package review

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/jonathan/catalog-enricher/internal/types"
)

// JobSaver writes reviewed products back to the job history
type JobSaver interface {
	SaveProducts(ctx context.Context, jobID string, products []types.EnrichedProduct) error
}

// Store owns a private copy of a job's products. Changes reach the job
// history only through Save.
type Store struct {
	mu        sync.Mutex
	jobID     string
	products  []types.EnrichedProduct
	index     map[string]int
	selection map[string]struct{}
	expanded  string
	dirty     bool
	logger    *log.Logger
}

// NewStore creates a review store for job. A nil logger uses log.Default.
func NewStore(job *types.Job, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	products := types.CloneProducts(job.Products)
	index := make(map[string]int, len(products))
	for i, p := range products {
		index[p.ID] = i
	}
	return &Store{
		jobID:     job.ID,
		products:  products,
		index:     index,
		selection: make(map[string]struct{}),
		logger:    logger,
	}
}

// JobID returns the id of the reviewed job
func (s *Store) JobID() string {
	return s.jobID
}

// Products returns a copy of the products in job order
func (s *Store) Products() []types.EnrichedProduct {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.CloneProducts(s.products)
}

// Product returns a copy of one product
func (s *Store) Product(id string) (types.EnrichedProduct, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return types.EnrichedProduct{}, false
	}
	return s.products[i].Clone(), true
}

// Selection returns the selected ids as a set
func (s *Store) Selection() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.selection))
	for id := range s.selection {
		out[id] = true
	}
	return out
}

// Expanded returns the id of the product whose detail view is open, or ""
func (s *Store) Expanded() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded
}

// Dirty reports whether there are edits or approvals not yet saved
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Edit overrides one enrichment field and marks the product edited. It
// returns false when the product does not exist or has failed. An absent
// facet is created so the value is not lost.
func (s *Store) Edit(id string, field types.EditableField, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false
	}
	p := &s.products[i]
	if p.Status == types.ProductFailed {
		return false
	}
	if !applyField(p, field, value) {
		return false
	}
	p.Status = types.ProductEdited
	s.dirty = true
	return true
}

func applyField(p *types.EnrichedProduct, field types.EditableField, value string) bool {
	switch field.Facet() {
	case types.FacetDescriptions:
		if p.DescriptionData == nil {
			p.DescriptionData = &types.DescriptionData{}
		}
	case types.FacetCategorization:
		if p.CategorizationData == nil {
			p.CategorizationData = &types.CategorizationData{}
		}
	case types.FacetSEO:
		if p.SEOData == nil {
			p.SEOData = &types.SEOData{}
		}
	default:
		return false
	}

	switch field {
	case types.FieldProductTitle:
		p.DescriptionData.ProductTitle = value
	case types.FieldShortDescription:
		p.DescriptionData.ShortDescription = value
	case types.FieldPrimaryCategory:
		p.CategorizationData.PrimaryCategory = value
	case types.FieldTaxonomyPath:
		p.CategorizationData.TaxonomyPath = value
	case types.FieldProductType:
		p.CategorizationData.ProductType = value
	case types.FieldMetaTitle:
		p.SEOData.MetaTitle = value
	case types.FieldMetaDescription:
		p.SEOData.MetaDescription = value
	}
	return true
}

// ApproveSelected approves every selected product regardless of its current
// status and returns how many were approved.
func (s *Store) ApproveSelected() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	approved := 0
	for i := range s.products {
		p := &s.products[i]
		if _, ok := s.selection[p.ID]; !ok {
			continue
		}
		if p.Status == types.ProductFailed {
			s.logger.Printf("[review] job %s: approving failed product %s", s.jobID, p.ID)
		}
		p.Status = types.ProductApproved
		approved++
	}
	if approved > 0 {
		s.dirty = true
	}
	return approved
}

// ToggleAll selects every product, or clears the selection when every
// product is already selected.
func (s *Store) ToggleAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.allSelected() {
		s.selection = make(map[string]struct{})
		return
	}
	for _, p := range s.products {
		s.selection[p.ID] = struct{}{}
	}
}

// ToggleOne adds or removes one id. It returns false for unknown ids.
func (s *Store) ToggleOne(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return false
	}
	if _, ok := s.selection[id]; ok {
		delete(s.selection, id)
	} else {
		s.selection[id] = struct{}{}
	}
	return true
}

// AllSelected reports whether every product is selected
func (s *Store) AllSelected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allSelected()
}

func (s *Store) allSelected() bool {
	return len(s.products) > 0 && len(s.selection) == len(s.products)
}

// Expand opens the detail view of id, closing any other. Expanding the open
// product closes it. It returns false for unknown ids.
func (s *Store) Expand(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return false
	}
	if s.expanded == id {
		s.expanded = ""
	} else {
		s.expanded = id
	}
	return true
}

// Collapse closes the detail view
func (s *Store) Collapse() {
	s.mu.Lock()
	s.expanded = ""
	s.mu.Unlock()
}

// Save writes the reviewed products back through saver and clears Dirty
func (s *Store) Save(ctx context.Context, saver JobSaver) error {
	s.mu.Lock()
	products := types.CloneProducts(s.products)
	s.mu.Unlock()

	if err := saver.SaveProducts(ctx, s.jobID, products); err != nil {
		return fmt.Errorf("failed to save review of job %s: %w", s.jobID, err)
	}

	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
	return nil
}

// AttributeCount counts non-empty physical attributes plus technical specs
// plus additional attributes. Variant attributes are not counted.
func AttributeCount(p types.EnrichedProduct) int {
	a := p.AttributeData
	if a == nil {
		return 0
	}
	n := 0
	for _, v := range []string{
		a.PhysicalAttributes.Dimensions,
		a.PhysicalAttributes.Weight,
		a.PhysicalAttributes.Size,
		a.PhysicalAttributes.Color,
		a.PhysicalAttributes.Material,
	} {
		if v != "" {
			n++
		}
	}
	return n + len(a.TechnicalSpecs) + len(a.AdditionalAttributes)
}
