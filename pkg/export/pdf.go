package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Export formats understood by the meeting export.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

const (
	pdfPageWidth = 277.0 // A4 landscape minus margins
	pdfMinColumn = 14.0
)

// PDFExporter renders a Dataset as a landscape table.
type PDFExporter struct {
	// Columns limits and orders the rendered headers. Empty renders every header.
	Columns []string
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter(columns ...string) *PDFExporter {
	return &PDFExporter{Columns: columns}
}

// Render creates the document. Text outside cp1252 is approximated by the core fonts.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	headers := data.Headers
	if len(e.Columns) > 0 {
		headers = e.Columns
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	widths := columnWidths(headers, data.Rows)

	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(229, 231, 235)
		for i, header := range headers {
			pdf.CellFormat(widths[i], 7, tr(header), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}
	pdf.SetHeaderFunc(func() {
		if title != "" && pdf.PageNo() == 1 {
			pdf.SetFont("Helvetica", "B", 13)
			pdf.CellFormat(0, 9, tr(title), "", 1, "L", false, 0, "")
			pdf.Ln(2)
		}
		writeHeader()
	})
	pdf.AddPage()

	for _, row := range data.Rows {
		for i, header := range headers {
			pdf.CellFormat(widths[i], 6, tr(fit(pdf, row[header], widths[i])), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(data.Rows) == 0 {
		pdf.CellFormat(0, 7, "No records", "1", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths shares the page width in proportion to the longest value of each column.
func columnWidths(headers []string, rows []map[string]string) []float64 {
	weights := make([]float64, len(headers))
	total := 0.0
	for i, header := range headers {
		longest := len(header)
		for _, row := range rows {
			if n := len(row[header]); n > longest {
				longest = n
			}
		}
		if longest > 40 {
			longest = 40
		}
		weights[i] = float64(longest)
		total += weights[i]
	}
	widths := make([]float64, len(headers))
	for i := range weights {
		widths[i] = pdfPageWidth * weights[i] / total
		if widths[i] < pdfMinColumn {
			widths[i] = pdfMinColumn
		}
	}
	return widths
}

// fit truncates value with an ellipsis so it stays inside width.
func fit(pdf *gofpdf.Fpdf, value string, width float64) string {
	const padding = 2.0
	if pdf.GetStringWidth(value)+padding <= width {
		return value
	}
	runes := []rune(value)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...")+padding > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
