package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a report-style PDF document.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF with a title, a key-figure summary block and one
// bordered table per dataset table.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Summary) == 0 && len(data.Tables) == 0 {
		return nil, fmt.Errorf("pdf export requires summary items or tables")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(data.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	if len(data.Summary) > 0 {
		pdf.SetFont("Arial", "", 10)
		for _, item := range data.Summary {
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(70, 7, item.Label, "", 0, "", false, 0, "")
			pdf.SetFont("Arial", "", 10)
			pdf.CellFormat(0, 7, item.Value, "", 1, "", false, 0, "")
		}
		pdf.Ln(4)
	}

	for _, table := range data.Tables {
		if len(table.Headers) == 0 {
			return nil, fmt.Errorf("pdf table %q requires at least one header", table.Name)
		}
		if table.Name != "" {
			pdf.SetFont("Arial", "B", 12)
			pdf.CellFormat(0, 8, table.Name, "", 1, "", false, 0, "")
		}
		pdf.SetFont("Arial", "B", 10)
		colWidth := 190.0 / float64(len(table.Headers))
		for _, header := range table.Headers {
			pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range table.Rows {
			for _, header := range table.Headers {
				pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
