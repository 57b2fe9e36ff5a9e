package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is a rendered schedule table: ordered headers plus one map per
// row. Cells missing from a row render empty, which keeps sparse columns
// like "Invigilator" simple for the builders.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

func (d Dataset) record(row map[string]string) []string {
	out := make([]string, len(d.Headers))
	for i, h := range d.Headers {
		out[i] = row[h]
	}
	return out
}

// CSVExporter renders a Dataset as CSV bytes.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render encodes the dataset, headers first.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("dataset has no headers")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("render csv header: %w", err)
	}
	for _, row := range data.Rows {
		if err := w.Write(data.record(row)); err != nil {
			return nil, fmt.Errorf("render csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	return buf.Bytes(), nil
}
