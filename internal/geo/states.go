// Package geo maps US state identifiers (FIPS codes, names, postal codes)
// onto two-letter postal codes. Lookups never fail; unknown input resolves to
// Unmatched so callers can fall back to a neutral presentation.
package geo

import (
	"strconv"
	"strings"
)

// Unmatched is returned for codes and names with no table entry
const Unmatched = "??"

type state struct {
	fips   string
	postal string
	name   string
}

var states = []state{
	{"01", "AL", "Alabama"},
	{"02", "AK", "Alaska"},
	{"04", "AZ", "Arizona"},
	{"05", "AR", "Arkansas"},
	{"06", "CA", "California"},
	{"08", "CO", "Colorado"},
	{"09", "CT", "Connecticut"},
	{"10", "DE", "Delaware"},
	{"11", "DC", "District of Columbia"},
	{"12", "FL", "Florida"},
	{"13", "GA", "Georgia"},
	{"15", "HI", "Hawaii"},
	{"16", "ID", "Idaho"},
	{"17", "IL", "Illinois"},
	{"18", "IN", "Indiana"},
	{"19", "IA", "Iowa"},
	{"20", "KS", "Kansas"},
	{"21", "KY", "Kentucky"},
	{"22", "LA", "Louisiana"},
	{"23", "ME", "Maine"},
	{"24", "MD", "Maryland"},
	{"25", "MA", "Massachusetts"},
	{"26", "MI", "Michigan"},
	{"27", "MN", "Minnesota"},
	{"28", "MS", "Mississippi"},
	{"29", "MO", "Missouri"},
	{"30", "MT", "Montana"},
	{"31", "NE", "Nebraska"},
	{"32", "NV", "Nevada"},
	{"33", "NH", "New Hampshire"},
	{"34", "NJ", "New Jersey"},
	{"35", "NM", "New Mexico"},
	{"36", "NY", "New York"},
	{"37", "NC", "North Carolina"},
	{"38", "ND", "North Dakota"},
	{"39", "OH", "Ohio"},
	{"40", "OK", "Oklahoma"},
	{"41", "OR", "Oregon"},
	{"42", "PA", "Pennsylvania"},
	{"44", "RI", "Rhode Island"},
	{"45", "SC", "South Carolina"},
	{"46", "SD", "South Dakota"},
	{"47", "TN", "Tennessee"},
	{"48", "TX", "Texas"},
	{"49", "UT", "Utah"},
	{"50", "VT", "Vermont"},
	{"51", "VA", "Virginia"},
	{"53", "WA", "Washington"},
	{"54", "WV", "West Virginia"},
	{"55", "WI", "Wisconsin"},
	{"56", "WY", "Wyoming"},
}

var (
	byFIPS   = make(map[string]state, len(states))
	byPostal = make(map[string]state, len(states))
	byName   = make(map[string]state, len(states))
)

func init() {
	for _, s := range states {
		byFIPS[s.fips] = s
		byPostal[s.postal] = s
		byName[strings.ToUpper(s.name)] = s
	}
}

// FIPSToPostal resolves a numeric state FIPS code. "6" and "06" are equivalent.
func FIPSToPostal(code string) string {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil || n < 0 || n > 99 {
		return Unmatched
	}
	if s, ok := byFIPS[padFIPS(n)]; ok {
		return s.postal
	}
	return Unmatched
}

// NameToPostal resolves a full state name, ignoring case and surrounding space
func NameToPostal(name string) string {
	if s, ok := byName[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return s.postal
	}
	return Unmatched
}

// PostalToName returns the display name for a postal code, or the input
// itself when unknown.
func PostalToName(postal string) string {
	if s, ok := byPostal[strings.ToUpper(strings.TrimSpace(postal))]; ok {
		return s.name
	}
	return postal
}

// Normalize accepts a postal code, FIPS code or state name
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return Unmatched
	}
	if s, ok := byPostal[strings.ToUpper(code)]; ok {
		return s.postal
	}
	if _, err := strconv.Atoi(code); err == nil {
		return FIPSToPostal(code)
	}
	return NameToPostal(code)
}

// IsMatched reports whether code resolves to a known state
func IsMatched(code string) bool {
	return Normalize(code) != Unmatched
}

// PostalCodes returns every known postal code in FIPS order
func PostalCodes() []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = s.postal
	}
	return out
}

func padFIPS(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
