// Package export renders a table view as CSV or PDF.
package export

import (
	"fmt"
	"time"

	"github.com/noah-isme/lms-admin-gateway/pkg/tableview"
)

// Format is an export file format.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts "csv" and "pdf".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType is the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Dataset is tabular export content. Every row has len(Headers) cells.
type Dataset struct {
	Title       string
	Headers     []string
	Rows        [][]string
	GeneratedAt time.Time
}

// FromRows renders rows through the field dispatch table, one column per field.
func FromRows[T any](title string, fields tableview.Fields[T], rows []T) Dataset {
	headers := make([]string, 0, len(fields))
	for _, f := range fields {
		label := f.Label
		if label == "" {
			label = f.Key
		}
		headers = append(headers, label)
	}
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, 0, len(fields))
		for _, f := range fields {
			cells = append(cells, tableview.Text(f.Value(row)))
		}
		out = append(out, cells)
	}
	return Dataset{Title: title, Headers: headers, Rows: out, GeneratedAt: time.Now().UTC()}
}

// FileName builds "<base>-<yyyymmdd-hhmmss>.<format>".
func FileName(base string, format Format, at time.Time) string {
	return fmt.Sprintf("%s-%s.%s", base, at.UTC().Format("20060102-150405"), format)
}

// Renderer turns a dataset into file bytes.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
}

// Render dispatches to the renderer of format.
func Render(format Format, data Dataset) ([]byte, error) {
	switch format {
	case FormatPDF:
		return NewPDFExporter().Render(data)
	default:
		return NewCSVExporter().Render(data)
	}
}
