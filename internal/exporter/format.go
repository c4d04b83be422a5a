package exporter

import (
	"strconv"
	"strings"
)

// formatFloat formats a float64 with the fewest digits that round-trip
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// parseNumber reports whether a cell holds a plain decimal number
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// numericColumns marks the columns whose non-empty cells are all numbers
func numericColumns(t Table) []bool {
	numeric := make([]bool, len(t.Headers))
	seen := make([]bool, len(t.Headers))
	for i := range numeric {
		numeric[i] = true
	}
	for _, row := range t.Rows {
		for i := range numeric {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				continue
			}
			seen[i] = true
			if _, ok := parseNumber(row[i]); !ok {
				numeric[i] = false
			}
		}
	}
	for i := range numeric {
		numeric[i] = numeric[i] && seen[i]
	}
	return numeric
}
