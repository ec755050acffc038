package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/catalog-enricher/internal/db"
	"github.com/jonathan/catalog-enricher/internal/observability"
	"github.com/jonathan/catalog-enricher/internal/types"
)

var (
	historyDatabaseDSN string
	historyQuery       string
	historyStatus      string
	historyLimit       int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past enrichment jobs and dashboard metrics",
	Long:  "Lists jobs recorded in a file-backed job store (see enrich --db), newest first, followed by the dashboard metrics.",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyDatabaseDSN, "db", "", "SQLite DSN of the job store (required)")
	historyCmd.Flags().StringVarP(&historyQuery, "query", "q", "", "Case-insensitive job name filter")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "Job status filter: processing, completed, failed or partial")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Maximum number of jobs to list (0 = all)")

	if err := historyCmd.MarkFlagRequired("db"); err != nil {
		panic(fmt.Sprintf("failed to mark db flag as required: %v", err))
	}

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	status := types.JobStatus(historyStatus)
	if status != "" && !status.Valid() {
		return fmt.Errorf("unknown job status %q", historyStatus)
	}

	database, err := db.Open(ctx, historyDatabaseDSN)
	if err != nil {
		return fmt.Errorf("failed to open job store: %w", err)
	}
	defer database.Close()

	return printHistory(ctx, database, db.JobFilter{Query: historyQuery, Status: status, Limit: historyLimit}, observability.NewPrinter(cmd.OutOrStdout()))
}

func printHistory(ctx context.Context, database *db.DB, filter db.JobFilter, printer *observability.Printer) error {
	jobs, err := database.ListJobs(ctx, filter)
	if err != nil {
		return err
	}
	stats, err := database.Stats(ctx)
	if err != nil {
		return err
	}
	printer.PrintJobs(jobs)
	printer.PrintStats(stats)
	return nil
}
