package export

import (
	"fmt"
	"strings"
)

// Encoder turns a header list plus a row matrix into a downloadable byte
// stream. The CSV encoder below is the canonical implementation; spreadsheet
// formats plug in behind the same interface.
type Encoder interface {
	Encode(headers []string, rows [][]interface{}) ([]byte, error)
	ContentType() string
	FileExtension() string
}

// CSVEncoder writes the partner CSV dialect: every field double-quoted,
// internal quotes doubled, rows joined with a bare newline.
type CSVEncoder struct{}

// NewCSVEncoder creates a CSV encoder.
func NewCSVEncoder() *CSVEncoder {
	return &CSVEncoder{}
}

func (e *CSVEncoder) Encode(headers []string, rows [][]interface{}) ([]byte, error) {
	var b strings.Builder

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(cell, `"`, `""`))
			b.WriteByte('"')
		}
	}

	writeRow(headers)
	for _, row := range rows {
		if len(row) != len(headers) {
			return nil, fmt.Errorf("row has %d cells, header has %d", len(row), len(headers))
		}
		b.WriteByte('\n')
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cellString(cell)
		}
		writeRow(cells)
	}

	return []byte(b.String()), nil
}

func (e *CSVEncoder) ContentType() string {
	return "text/csv; charset=utf-8"
}

func (e *CSVEncoder) FileExtension() string {
	return ".csv"
}

// cellString renders a cell value. Strings pass through; numbers use their
// decimal form; nil becomes the empty string so column alignment never
// depends on optional data.
func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
