package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/catalog-enricher/internal/agent"
	"github.com/jonathan/catalog-enricher/internal/types"
)

// Format is an export encoding
type Format string

// Format constants
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for formats other than csv and json
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat parses a format name case-insensitively
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// MIMEType returns the content type of the format
func (f Format) MIMEType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

const defaultNotifyTimeout = 30 * time.Second

// Payload is a rendered export file
type Payload struct {
	Data     []byte
	MIMEType string
	Filename string
	Count    int
	Format   Format
}

// Message is the operator-facing completion line for an export
func (p *Payload) Message() string {
	return fmt.Sprintf("Export complete! %d products exported as %s.", p.Count, strings.ToUpper(string(p.Format)))
}

// Options configures a Formatter
type Options struct {
	Notifier      agent.ExportNotifier
	NotifyTimeout time.Duration
	Logger        *log.Logger
	Now           func() time.Time
}

// Formatter renders export payloads and notifies the export capability
type Formatter struct {
	notifier      agent.ExportNotifier
	notifyTimeout time.Duration
	logger        *log.Logger
	now           func() time.Time
	pending       sync.WaitGroup
}

// NewFormatter creates a Formatter. A nil Notifier disables notifications.
func NewFormatter(opts Options) *Formatter {
	f := &Formatter{
		notifier:      opts.Notifier,
		notifyTimeout: opts.NotifyTimeout,
		logger:        opts.Logger,
		now:           opts.Now,
	}
	if f.notifier == nil {
		f.notifier = agent.NopNotifier{}
	}
	if f.notifyTimeout <= 0 {
		f.notifyTimeout = defaultNotifyTimeout
	}
	if f.logger == nil {
		f.logger = log.Default()
	}
	if f.now == nil {
		f.now = time.Now
	}
	return f
}

// Export renders the selected-or-approved subset of products. It returns
// nil without error when the subset is empty. The export notification runs
// in the background and never affects the payload.
func (f *Formatter) Export(ctx context.Context, products []types.EnrichedProduct, selection map[string]bool, format Format) (*Payload, error) {
	if format != FormatCSV && format != FormatJSON {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	subset := Subset(products, selection)
	if len(subset) == 0 {
		return nil, nil
	}

	f.notify(ctx, subset)

	var data []byte
	switch format {
	case FormatJSON:
		var err error
		if data, err = EncodeJSON(subset); err != nil {
			return nil, err
		}
	default:
		data = EncodeCSV(subset)
	}

	return &Payload{
		Data:     data,
		MIMEType: format.MIMEType(),
		Filename: fmt.Sprintf("enriched-products-%d.%s", f.now().UnixMilli(), format),
		Count:    len(subset),
		Format:   format,
	}, nil
}

// Wait blocks until background notifications have finished
func (f *Formatter) Wait() {
	f.pending.Wait()
}

func (f *Formatter) notify(ctx context.Context, subset []types.EnrichedProduct) {
	notice := Notice(subset)

	f.pending.Add(1)
	go func() {
		defer f.pending.Done()

		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.notifyTimeout)
		defer cancel()

		if err := f.notifier.NotifyExport(nctx, notice); err != nil {
			f.logger.Printf("[export] notification failed (ignored): %v", err)
		}
	}()
}

// Notice builds the facet-only export notification for products
func Notice(products []types.EnrichedProduct) agent.ExportNotice {
	items := make([]agent.ExportedProduct, 0, len(products))
	for _, p := range products {
		c := p.Clone()
		items = append(items, agent.ExportedProduct{
			ProductName:        c.DisplayName(),
			DescriptionData:    c.DescriptionData,
			CategorizationData: c.CategorizationData,
			AttributeData:      c.AttributeData,
			SEOData:            c.SEOData,
		})
	}
	return agent.ExportNotice{ApprovedProducts: items}
}
