// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jonathan/catalog-enricher/internal/db"
	"github.com/jonathan/catalog-enricher/internal/enrichment"
	"github.com/jonathan/catalog-enricher/internal/review"
	"github.com/jonathan/catalog-enricher/internal/types"
)

const (
	// boxWidth is the width of summary boxes
	boxWidth = 60
	// maxNameWidth truncates product names in tables
	maxNameWidth = 40
	// progressBarWidth is the number of cells in the progress bar
	progressBarWidth = 20
)

// Printer renders human-readable output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProgress writes one progress line
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(pr enrichment.Progress) {
	filled := pr.Percent * progressBarWidth / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled)
	line := fmt.Sprintf("[%s] %3d%% (%d/%d)", bar, pr.Percent, pr.Completed, pr.Total)
	if pr.Current != "" {
		line += " " + truncate(pr.Current, maxNameWidth)
	}
	fmt.Fprintln(p.out, line)
}

// PrintJobSummary outputs the job header box followed by a product table
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintJobSummary(job *types.Job) {
	if job == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Job:      %s\n", job.ID))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", job.Status))
	sb.WriteString(fmt.Sprintf("Products: %d\n", job.ProductCount))
	sb.WriteString(fmt.Sprintf("Enriched: %d  Failed: %d", job.CountByStatus(types.ProductEnriched), job.CountByStatus(types.ProductFailed)))
	p.printBox(job.Name, sb.String())

	rows := make([][]string, 0, len(job.Products))
	for i, prod := range job.Products {
		rows = append(rows, productRow(i, prod))
	}
	fmt.Fprintln(p.out, renderTable(
		[]string{"#", "Product", "Status", "Category", "Attributes", "SEO"},
		rows,
		[]text.Align{text.AlignRight, text.AlignLeft, text.AlignLeft, text.AlignLeft, text.AlignRight, text.AlignRight},
	))
}

func productRow(i int, prod types.EnrichedProduct) []string {
	category := ""
	if prod.CategorizationData != nil {
		category = prod.CategorizationData.PrimaryCategory
	}
	seo := ""
	if prod.SEOData != nil && prod.SEOData.SEOScore != nil {
		score := *prod.SEOData.SEOScore
		seo = fmt.Sprintf("%s (%s)", strconv.FormatFloat(score, 'f', -1, 64), types.SEOBand(score))
	}
	attrs := ""
	if prod.AttributeData != nil {
		attrs = strconv.Itoa(review.AttributeCount(prod))
	}
	return []string{
		strconv.Itoa(i + 1),
		truncate(prod.DisplayName(), maxNameWidth),
		string(prod.Status),
		category,
		attrs,
		seo,
	}
}

// PrintJobs outputs the job history as a table
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintJobs(jobs []types.Job) {
	if len(jobs) == 0 {
		fmt.Fprintln(p.out, "No jobs found.")
		return
	}
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			job.ID,
			truncate(job.Name, maxNameWidth),
			strconv.Itoa(job.ProductCount),
			string(job.Status),
			job.Date.Format("2006-01-02 15:04"),
		})
	}
	fmt.Fprintln(p.out, renderTable(
		[]string{"ID", "Name", "Products", "Status", "Date"},
		rows,
		[]text.Align{text.AlignLeft, text.AlignLeft, text.AlignRight, text.AlignLeft, text.AlignLeft},
	))
}

// PrintStats outputs the dashboard metrics
func (p *Printer) PrintStats(s db.Stats) {
	p.printBox("Dashboard", strings.Join([]string{
		fmt.Sprintf("Total products:  %d (across all jobs)", s.TotalProducts),
		fmt.Sprintf("Active jobs:     %d", s.ActiveJobs),
		fmt.Sprintf("Completion rate: %d%% (%d of %d jobs)", s.CompletionRate, s.CompletedJobs, s.TotalJobs),
	}, "\n"))
}

func renderTable(headers []string, rows [][]string, aligns []text.Align) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) {
			align = aligns[i]
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}
