package exporter

import (
	"encoding/json"
	"io"
)

// JSONWriter writes a table as an array of objects keyed by header. Cells
// in all-numeric columns are written as numbers, empty cells as null.
type JSONWriter struct {
	Indent bool
}

func (j *JSONWriter) Write(w io.Writer, t Table) error {
	numeric := numericColumns(t)

	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		obj := make(map[string]any, len(t.Headers))
		for i, h := range t.Headers {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			switch {
			case cell == "":
				obj[h] = nil
			case numeric[i]:
				f, _ := parseNumber(cell)
				obj[h] = f
			default:
				obj[h] = cell
			}
		}
		out = append(out, obj)
	}

	enc := json.NewEncoder(w)
	if j.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}
