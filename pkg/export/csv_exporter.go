package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// SummaryItem is one labelled value in a dataset's summary block.
type SummaryItem struct {
	Label string
	Value string
}

// Table is one tabular section of an export.
type Table struct {
	Name    string
	Headers []string
	Rows    []map[string]string
}

// Dataset defines export content for a generated report: a summary block of
// headline figures followed by zero or more tables.
type Dataset struct {
	Title   string
	Summary []SummaryItem
	Tables  []Table
}

// CSVExporter renders a Dataset into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes. The summary is emitted as label/value
// pairs, then each table with its name, headers and rows, blank-line separated.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Summary) == 0 && len(data.Tables) == 0 {
		return nil, fmt.Errorf("csv export requires summary items or tables")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	if data.Title != "" {
		if err := writer.Write([]string{data.Title}); err != nil {
			return nil, fmt.Errorf("write csv title: %w", err)
		}
	}
	for _, item := range data.Summary {
		if err := writer.Write([]string{item.Label, item.Value}); err != nil {
			return nil, fmt.Errorf("write csv summary row: %w", err)
		}
	}

	for _, table := range data.Tables {
		if len(table.Headers) == 0 {
			return nil, fmt.Errorf("csv table %q requires at least one header", table.Name)
		}
		if err := writer.Write([]string{}); err != nil {
			return nil, fmt.Errorf("write csv separator: %w", err)
		}
		if table.Name != "" {
			if err := writer.Write([]string{table.Name}); err != nil {
				return nil, fmt.Errorf("write csv table name: %w", err)
			}
		}
		if err := writer.Write(table.Headers); err != nil {
			return nil, fmt.Errorf("write csv headers: %w", err)
		}
		for _, row := range table.Rows {
			record := make([]string, len(table.Headers))
			for i, header := range table.Headers {
				record[i] = row[header]
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
