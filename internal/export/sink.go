package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Sink accepts a rendered export file
type Sink interface {
	Deliver(ctx context.Context, p *Payload) error
}

// DirSink writes exports into a directory
type DirSink struct {
	Dir string
}

// Path returns where p will be written
func (s DirSink) Path(p *Payload) string {
	return filepath.Join(s.Dir, p.Filename)
}

// Deliver writes p to Path(p), creating the directory if needed
func (s DirSink) Deliver(_ context.Context, p *Payload) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(s.Path(p), p.Data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
