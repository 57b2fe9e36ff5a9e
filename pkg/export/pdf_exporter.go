package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a basic tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			value := row[header]
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// SeatingGrid describes one room's seat layout for chart rendering.
type SeatingGrid struct {
	RoomID  string
	Rows    int
	Columns int
	// Cells maps "row:col" to the occupant label; empty seats are omitted.
	Cells map[string]string
}

// GridCellKey builds the Cells lookup key for a seat coordinate.
func GridCellKey(row, col int) string {
	return fmt.Sprintf("%d:%d", row, col)
}

// RenderSeatingChart draws one page per room with a bordered seat grid.
func (e *PDFExporter) RenderSeatingChart(title string, grids []SeatingGrid) ([]byte, error) {
	if len(grids) == 0 {
		return nil, fmt.Errorf("seating chart requires at least one room grid")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)

	for _, grid := range grids {
		if grid.Rows <= 0 || grid.Columns <= 0 {
			return nil, fmt.Errorf("room %s has an empty seat grid", grid.RoomID)
		}
		pdf.AddPage()

		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 8, fmt.Sprintf("Room %s", grid.RoomID), "", 1, "C", false, 0, "")
		pdf.Ln(3)

		cellWidth := 277.0 / float64(grid.Columns)
		if cellWidth > 40 {
			cellWidth = 40
		}
		pdf.SetFont("Arial", "", 8)
		for r := 0; r < grid.Rows; r++ {
			for c := 0; c < grid.Columns; c++ {
				label := grid.Cells[GridCellKey(r, c)]
				pdf.CellFormat(cellWidth, 9, label, "1", 0, "C", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render seating chart: %w", err)
	}
	return buf.Bytes(), nil
}
