package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/catalog-enricher/internal/agent"
	"github.com/jonathan/catalog-enricher/internal/catalog"
	"github.com/jonathan/catalog-enricher/internal/db"
	"github.com/jonathan/catalog-enricher/internal/enrichment"
	"github.com/jonathan/catalog-enricher/internal/export"
	"github.com/jonathan/catalog-enricher/internal/observability"
	"github.com/jonathan/catalog-enricher/internal/review"
	"github.com/jonathan/catalog-enricher/internal/types"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a product catalog and export the result",
	Long: `Parses a CSV or JSON catalog (or the built-in sample catalog), enriches every product, prints a summary and exports the approved products.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runEnrichCmd,
}

var (
	enrichFile        string
	enrichSample      bool
	enrichConfigPath  string
	enrichBrandTone   string
	enrichTaxonomy    string
	enrichSkip        []string
	enrichConcurrency int
	enrichApproveAll  bool
	enrichFormat      string
	enrichOutDir      string
	enrichDatabaseDSN string
	enrichVerbose     bool
)

func init() {
	enrichCmd.Flags().StringVar(&enrichConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	enrichCmd.Flags().StringVarP(&enrichFile, "file", "f", "", "Path to a .csv or .json catalog")
	enrichCmd.Flags().BoolVar(&enrichSample, "sample", false, "Use the built-in sample catalog instead of a file")
	enrichCmd.Flags().StringVar(&enrichBrandTone, "brand-tone", "", "Brand tone for generated copy")
	enrichCmd.Flags().StringVar(&enrichTaxonomy, "taxonomy", "", "Taxonomy preference: auto, google, facebook or custom")
	enrichCmd.Flags().StringSliceVar(&enrichSkip, "skip", nil, "Enrichment types to skip: descriptions, categorization, attributes, seo")
	enrichCmd.Flags().IntVar(&enrichConcurrency, "concurrency", 0, "Products enriched in parallel (1 = sequential)")
	enrichCmd.Flags().BoolVar(&enrichApproveAll, "approve-all", false, "Approve every successfully enriched product before exporting")
	enrichCmd.Flags().StringVar(&enrichFormat, "format", "", "Export format: csv or json")
	enrichCmd.Flags().StringVarP(&enrichOutDir, "out-dir", "o", "", "Directory the export file is written to")
	enrichCmd.Flags().StringVar(&enrichDatabaseDSN, "db", "", "SQLite DSN for the job history (defaults to an in-memory store)")
	enrichCmd.Flags().BoolVarP(&enrichVerbose, "verbose", "v", false, "Print the product table and agent logs")

	enrichCmd.MarkFlagsMutuallyExclusive("file", "sample")

	rootCmd.AddCommand(enrichCmd)
}

// enrichOptions is a fully resolved enrich invocation
type enrichOptions struct {
	File          string
	Sample        bool
	Config        types.EnrichmentConfig
	Concurrency   int
	ApproveAll    bool
	Format        export.Format
	OutDir        string
	NotifyTimeout time.Duration
	Verbose       bool
}

// enrichOutcome is what a run produced
type enrichOutcome struct {
	Job        *types.Job
	Payload    *export.Payload
	ExportPath string
}

func runEnrichCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file and environment
	cfg, err := resolveConfig(enrichConfigPath)
	if err != nil {
		return err
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	enrichCfg := cfg.EnrichmentConfig()
	if cmd.Flags().Changed("brand-tone") {
		enrichCfg.BrandTone = enrichBrandTone
	}
	if cmd.Flags().Changed("taxonomy") {
		enrichCfg.TaxonomyPreference = types.TaxonomyPreference(enrichTaxonomy)
	}
	for _, name := range enrichSkip {
		facet, err := parseFacet(name)
		if err != nil {
			return err
		}
		enrichCfg.SetEnabled(facet, false)
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = enrichConcurrency
	}
	if cmd.Flags().Changed("format") {
		cfg.Format = enrichFormat
	}
	if cmd.Flags().Changed("out-dir") {
		cfg.OutDir = enrichOutDir
	}
	if cmd.Flags().Changed("db") {
		cfg.DatabaseDSN = enrichDatabaseDSN
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = enrichVerbose
	}

	// Step 3: Validate
	if enrichFile == "" && !enrichSample {
		return fmt.Errorf("either --file or --sample must be provided")
	}
	if err := enrichCfg.Validate(); err != nil {
		return fmt.Errorf("invalid enrichment options: %w", err)
	}
	format, err := export.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	// Step 4: Open the job store and the remote capabilities
	database, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("failed to open job store: %w", err)
	}
	defer database.Close()

	caps, err := buildCapabilities(ctx, cfg)
	if err != nil {
		return err
	}
	defer caps.close() //nolint:errcheck

	opts := enrichOptions{
		File:          enrichFile,
		Sample:        enrichSample,
		Config:        enrichCfg,
		Concurrency:   cfg.Concurrency,
		ApproveAll:    enrichApproveAll,
		Format:        format,
		OutDir:        cfg.OutDir,
		NotifyTimeout: notifyTimeout(cfg),
		Verbose:       cfg.Verbose,
	}
	_, err = runEnrichment(ctx, opts, database, caps.enricher, caps.notifier, cmd.OutOrStdout())
	return err
}

// runEnrichment parses the catalog, enriches it, optionally approves every
// enriched product and exports the approved subset into opts.OutDir.
func runEnrichment(ctx context.Context, opts enrichOptions, database *db.DB, enricher agent.Enricher, notifier agent.ExportNotifier, out io.Writer) (*enrichOutcome, error) {
	logger := log.New(io.Discard, "", 0)
	if opts.Verbose {
		logger = log.New(out, "", log.LstdFlags)
	}
	printer := observability.NewPrinter(out)

	// Step 1: Parse the catalog
	name := types.DefaultJobName
	var records []types.RawRecord
	if opts.Sample {
		records = catalog.SampleRecords()
	} else {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog: %w", err)
		}
		records, err = catalog.Parse(opts.File, data)
		if err != nil {
			return nil, err
		}
		name = filepath.Base(opts.File)
	}
	_, _ = fmt.Fprintf(out, "Loaded %d products from %s\n", len(records), name)

	// Step 2: Enrich
	orch := enrichment.New(enricher, enrichment.Options{
		Concurrency: opts.Concurrency,
		Recorder:    database,
		Logger:      logger,
	})
	job, err := orch.Run(ctx, enrichment.RunRequest{
		Name:       name,
		Records:    records,
		Config:     opts.Config,
		OnProgress: printer.PrintProgress,
	})
	if err != nil {
		return nil, err
	}
	_, _ = fmt.Fprintln(out, enrichment.SummaryMessage(job))
	if opts.Verbose {
		printer.PrintJobSummary(job)
	}
	outcome := &enrichOutcome{Job: job}

	// Step 3: Review
	store := review.NewStore(job, logger)
	if opts.ApproveAll {
		for _, p := range store.Products() {
			if p.Status != types.ProductFailed {
				store.ToggleOne(p.ID)
			}
		}
		n := store.ApproveSelected()
		if err := store.Save(ctx, database); err != nil {
			return nil, err
		}
		_, _ = fmt.Fprintf(out, "Approved %d products\n", n)
	}

	// Step 4: Export
	formatter := export.NewFormatter(export.Options{
		Notifier:      notifier,
		NotifyTimeout: opts.NotifyTimeout,
		Logger:        logger,
	})
	defer formatter.Wait()

	payload, err := formatter.Export(ctx, store.Products(), nil, opts.Format)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		_, _ = fmt.Fprintln(out, "No approved products to export. Use --approve-all to export every enriched product.")
		return outcome, nil
	}

	sink := export.DirSink{Dir: opts.OutDir}
	if err := sink.Deliver(ctx, payload); err != nil {
		return nil, err
	}
	outcome.Payload = payload
	outcome.ExportPath = sink.Path(payload)
	_, _ = fmt.Fprintf(out, "%s\nWrote %s\n", payload.Message(), outcome.ExportPath)
	return outcome, nil
}

func parseFacet(name string) (types.FacetType, error) {
	for _, facet := range types.AllFacets {
		if string(facet) == name {
			return facet, nil
		}
	}
	return "", fmt.Errorf("unknown enrichment type %q (expected descriptions, categorization, attributes or seo)", name)
}
