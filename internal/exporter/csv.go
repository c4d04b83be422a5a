package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	// BOMPrefix adds a UTF-8 BOM for Excel compatibility
	BOMPrefix bool
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(bom bool) *CSVWriter {
	return &CSVWriter{BOMPrefix: bom}
}

// Write writes the table header and rows
func (c *CSVWriter) Write(w io.Writer, t Table) error {
	if c.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if len(t.Headers) > 0 {
		if err := writer.Write(t.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range t.Rows {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
