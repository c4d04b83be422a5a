package exporter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	api "usdataexplorer/pkg/contracts/api/v1"
)

// Format is an export output format
type Format string

const (
	FormatCSV      Format = "csv"
	FormatXLSX     Format = "xlsx"
	FormatJSON     Format = "json"
	FormatSQLite   Format = "sqlite"
	FormatPostgres Format = "postgres"
)

// ParseFormat validates a format name. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatCSV, FormatXLSX, FormatJSON, FormatSQLite, FormatPostgres:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// IsFile reports whether the format produces a downloadable file
func (f Format) IsFile() bool {
	return f == FormatCSV || f == FormatXLSX || f == FormatJSON
}

// Extension returns the file extension, with the dot
func (f Format) Extension() string {
	switch f {
	case FormatSQLite:
		return ".db"
	case FormatPostgres:
		return ""
	}
	return "." + string(f)
}

// ContentType returns the MIME type served for a file format
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// Table is a flat result ready to be written in any format
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Writer renders a table to a stream
type Writer interface {
	Write(w io.Writer, t Table) error
}

// FromAggregate flattens an aggregation. Each category gets a value column
// and a share column, in name order.
func FromAggregate(name string, resp api.AggregateResponse) Table {
	var categories []string
	seen := make(map[string]bool)
	for _, row := range resp.Rows {
		for c := range row.Categories {
			if !seen[c] {
				seen[c] = true
				categories = append(categories, c)
			}
		}
	}
	sort.Strings(categories)

	headers := []string{strings.Join(resp.GroupBy, " / "), "total", "percent", "rows"}
	for _, c := range categories {
		headers = append(headers, c, c+" %")
	}

	rows := make([][]string, 0, len(resp.Rows))
	for _, r := range resp.Rows {
		cells := []string{r.Key, formatFloat(r.Total), r.Percent, formatInt(r.Rows)}
		for _, c := range categories {
			v, ok := r.Categories[c]
			if !ok {
				cells = append(cells, "", "")
				continue
			}
			cells = append(cells, formatFloat(v), r.Shares[c])
		}
		rows = append(rows, cells)
	}

	return Table{Name: name, Headers: headers, Rows: rows}
}
