// Package enrichment drives a catalog through the enrichment capability and
// produces a finalized job.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/catalog-enricher/internal/agent"
	"github.com/jonathan/catalog-enricher/internal/types"
)

// ErrNoRecords is returned when a run is started without any records
var ErrNoRecords = errors.New("no records to enrich")

// Recorder persists job lifecycle transitions
type Recorder interface {
	CreateJob(ctx context.Context, job *types.Job) error
	FinalizeJob(ctx context.Context, job *types.Job) error
}

// Progress is published before each record and once after the last one
type Progress struct {
	JobID     string `json:"job_id"`
	Index     int    `json:"index"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
	Completed int    `json:"completed"`
	Current   string `json:"current"`
}

// ProgressFunc receives progress updates. It is called from the goroutine running Run.
type ProgressFunc func(Progress)

// Options configures an Orchestrator
type Options struct {
	// Concurrency bounds in-flight enrichment calls. Values <= 1 process
	// records strictly one at a time.
	Concurrency int
	Recorder    Recorder
	Logger      *log.Logger
	Now         func() time.Time
}

// RunRequest describes one run
type RunRequest struct {
	JobID      string
	Name       string
	Records    []types.RawRecord
	Config     types.EnrichmentConfig
	OnProgress ProgressFunc
}

// Orchestrator calls the enrichment capability once per record
type Orchestrator struct {
	enricher    agent.Enricher
	concurrency int
	recorder    Recorder
	logger      *log.Logger
	now         func() time.Time
}

// New creates an Orchestrator
func New(enricher agent.Enricher, opts Options) *Orchestrator {
	o := &Orchestrator{
		enricher:    enricher,
		concurrency: opts.Concurrency,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
		now:         opts.Now,
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// NewJob creates the processing job for req without running it
func (o *Orchestrator) NewJob(req RunRequest) *types.Job {
	id := req.JobID
	if id == "" {
		id = uuid.NewString()
	}
	name := req.Name
	if name == "" {
		name = types.DefaultJobName
	}
	return &types.Job{
		ID:           id,
		Name:         name,
		ProductCount: len(req.Records),
		Date:         o.now(),
		Status:       types.JobProcessing,
		Products:     []types.EnrichedProduct{},
	}
}

// Run enriches every record and returns the finalized job. Errors are only
// returned before processing starts; per-record failures become failed
// products.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*types.Job, error) {
	if len(req.Records) == 0 {
		return nil, ErrNoRecords
	}
	if err := req.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid enrichment config: %w", err)
	}

	job := o.NewJob(req)
	if o.recorder != nil {
		if err := o.recorder.CreateJob(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to record job: %w", err)
		}
	}

	o.logger.Printf("[enrichment] job %s: %d records, types=%v, concurrency=%d",
		job.ID, len(req.Records), req.Config.EnabledTypes(), o.concurrency)

	var products []types.EnrichedProduct
	if o.concurrency <= 1 {
		products = o.runSequential(ctx, job.ID, req)
	} else {
		products = o.runPooled(ctx, job.ID, req)
	}

	publish(req.OnProgress, Progress{
		JobID:     job.ID,
		Index:     len(req.Records),
		Total:     len(req.Records),
		Percent:   100,
		Completed: len(req.Records),
	})

	job.Products = products
	job.Status = TerminalStatus(products)
	o.logger.Printf("[enrichment] job %s finished: %s", job.ID, SummaryMessage(job))

	if o.recorder != nil {
		// finalize with a context that outlives a cancelled request
		if err := o.recorder.FinalizeJob(context.WithoutCancel(ctx), job); err != nil {
			o.logger.Printf("[enrichment] job %s: failed to record final state: %v", job.ID, err)
		}
	}
	return job, nil
}

func (o *Orchestrator) runSequential(ctx context.Context, jobID string, req RunRequest) []types.EnrichedProduct {
	total := len(req.Records)
	products := make([]types.EnrichedProduct, 0, total)
	for i, rec := range req.Records {
		publish(req.OnProgress, o.progress(jobID, rec, i, total))
		products = append(products, o.enrichOne(ctx, jobID, rec, i, req.Config))
	}
	return products
}

// runPooled dispatches records to a bounded pool. Each result lands in its
// own slot and slots are drained in input order, so output order and
// progress match the sequential loop.
func (o *Orchestrator) runPooled(ctx context.Context, jobID string, req RunRequest) []types.EnrichedProduct {
	total := len(req.Records)
	slots := make([]chan types.EnrichedProduct, total)
	for i := range slots {
		slots[i] = make(chan types.EnrichedProduct, 1)
	}

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	go func() {
		for i, rec := range req.Records {
			g.Go(func() error {
				slots[i] <- o.enrichOne(ctx, jobID, rec, i, req.Config)
				return nil
			})
		}
	}()

	products := make([]types.EnrichedProduct, 0, total)
	for i, rec := range req.Records {
		publish(req.OnProgress, o.progress(jobID, rec, i, total))
		products = append(products, <-slots[i])
	}
	_ = g.Wait()
	return products
}

func (o *Orchestrator) progress(jobID string, rec types.RawRecord, i, total int) Progress {
	return Progress{
		JobID:     jobID,
		Index:     i,
		Total:     total,
		Percent:   Percent(i, total),
		Completed: i,
		Current:   Label(rec, i),
	}
}

// enrichOne makes exactly one call for rec. Any error becomes a failed product.
func (o *Orchestrator) enrichOne(ctx context.Context, jobID string, rec types.RawRecord, i int, cfg types.EnrichmentConfig) types.EnrichedProduct {
	product := types.EnrichedProduct{
		ID:           uuid.NewString(),
		OriginalData: rec.Clone(),
	}

	result, err := o.call(ctx, agent.NewRequest(rec, cfg))
	if err != nil {
		o.logger.Printf("[enrichment] job %s: record %d failed: %v", jobID, i+1, err)
		product.Status = types.ProductFailed
		return product
	}

	product.Status = types.ProductEnriched
	product.ProductName = Label(rec, i)
	if result.ProductName != nil {
		product.ProductName = *result.ProductName
	}
	product.EnrichmentStatus = types.DefaultEnrichmentStatus
	if result.EnrichmentStatus != nil {
		product.EnrichmentStatus = *result.EnrichmentStatus
	}
	product.DescriptionData = result.DescriptionData
	product.CategorizationData = result.CategorizationData
	product.AttributeData = result.AttributeData
	product.SEOData = result.SEOData
	return product
}

// call guards against enrichers that panic or return neither a result nor an error
func (o *Orchestrator) call(ctx context.Context, req agent.Request) (result *types.EnrichmentResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("enricher panic: %v", r)
		}
	}()

	result, err = o.enricher.Enrich(ctx, req)
	if err == nil && result == nil {
		err = errors.New("enricher returned no result")
	}
	return result, err
}

func publish(fn ProgressFunc, p Progress) {
	if fn != nil {
		fn(p)
	}
}
