package telemetry

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// Exporter appends tick rows to a CSV file. A nil Exporter is a valid
// disabled sink; every method is a no-op on it.
type Exporter struct {
	file          *os.File
	headerWritten bool
}

// NewExporter creates the CSV file at path, truncating any previous run.
// An empty path returns a nil (disabled) exporter.
func NewExporter(path string) (*Exporter, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating csv export: %w", err)
	}
	return &Exporter{file: f}, nil
}

// Write appends one row, emitting the header on the first call.
func (e *Exporter) Write(ts TickStats) error {
	if e == nil {
		return nil
	}

	records := []TickStats{ts}
	if !e.headerWritten {
		if err := gocsv.Marshal(records, e.file); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
		e.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, e.file); err != nil {
		return fmt.Errorf("writing csv row: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (e *Exporter) Close() error {
	if e == nil {
		return nil
	}
	return e.file.Close()
}
