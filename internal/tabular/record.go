package tabular

import (
	"math"
	"strconv"
	"strings"
)

// Record is one parsed row: header name to trimmed cell value. Records are
// never mutated after Parse returns them.
type Record map[string]string

// Field returns the trimmed value for name, or def when the field is missing
// or empty.
func (r Record) Field(name, def string) string {
	v, ok := r[name]
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

// Has reports whether name is present with a non-empty value
func (r Record) Has(name string) bool {
	return r.Field(name, "") != ""
}

// Int reads name as an integer. A leading integer prefix is accepted
// ("12 votes" is 12, "7.9" is 7); anything else yields 0.
func (r Record) Int(name string) int {
	return ParseInt(r[name])
}

// Float reads name as a float, yielding 0 for missing, malformed, NaN or
// infinite values.
func (r Record) Float(name string) float64 {
	return ParseFloat(r[name])
}

// ParseInt converts the leading signed digits of s to an int, 0 when there
// are none.
func ParseInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// ParseFloat converts s to a finite float64, 0 on failure
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return float64(ParseInt(s))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
