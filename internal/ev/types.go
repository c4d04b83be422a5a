package ev

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"usdataexplorer/internal/aggregate"
	"usdataexplorer/internal/tabular"
)

// All disables a TypeBreakdown filter field
const All = "all"

// RangeBucket is a half-open electric range interval [Min, Max). A zero Max
// leaves the bucket unbounded above.
type RangeBucket struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max,omitempty"`
}

// Contains reports whether v falls inside the bucket
func (b RangeBucket) Contains(v float64) bool {
	return v >= b.Min && (b.Max == 0 || v < b.Max)
}

// RangeBuckets are the selectable range filters
var RangeBuckets = []RangeBucket{
	{Label: "Under 100 miles", Min: 0, Max: 100},
	{Label: "100-200 miles", Min: 100, Max: 200},
	{Label: "200-300 miles", Min: 200, Max: 300},
	{Label: "Over 300 miles", Min: 300},
}

// FindRangeBucket looks a bucket up by label
func FindRangeBucket(label string) (RangeBucket, bool) {
	for _, b := range RangeBuckets {
		if b.Label == label {
			return b, true
		}
	}
	return RangeBucket{}, false
}

// Eligibility buckets for the CAFV column
const (
	Eligible    = "Eligible"
	NotEligible = "Not Eligible"
)

// EligibilityStatus collapses the free-text CAFV column
func EligibilityStatus(s string) string {
	switch {
	case strings.Contains(s, "Eligible"):
		return Eligible
	case strings.Contains(s, "Not eligible"):
		return NotEligible
	default:
		return aggregate.Unknown
	}
}

// Filter narrows TypeBreakdown. Empty or "all" fields match everything.
type Filter struct {
	Type  string `json:"type,omitempty"`
	Make  string `json:"make,omitempty"`
	Year  string `json:"year,omitempty"`
	Range string `json:"range,omitempty" validate:"omitempty,oneof=all 'Under 100 miles' '100-200 miles' '200-300 miles' 'Over 300 miles'"`
}

func active(v string) bool {
	return v != "" && v != All
}

func (f Filter) match(r tabular.Record) bool {
	if active(f.Type) && r[FieldType] != f.Type {
		return false
	}
	if active(f.Make) && r[FieldMake] != f.Make {
		return false
	}
	if active(f.Year) && r[FieldModelYear] != f.Year {
		return false
	}
	if active(f.Range) {
		b, ok := FindRangeBucket(f.Range)
		if !ok {
			return false
		}
		raw := strings.TrimSpace(r[FieldRange])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || !b.Contains(v) {
			return false
		}
	}
	return true
}

// TypeOptions are the distinct values offered by the breakdown filters
type TypeOptions struct {
	Types  []string      `json:"types"`
	Makes  []string      `json:"makes"`
	Years  []int         `json:"years"`
	Ranges []RangeBucket `json:"ranges"`
}

// TypeBreakdown is the filtered fleet analysis
type TypeBreakdown struct {
	Options       TypeOptions             `json:"options"`
	Filter        Filter                  `json:"filter"`
	TotalVehicles int                     `json:"totalVehicles"`
	AvgRange      string                  `json:"avgRange"`
	YearData      []aggregate.RankedEntry `json:"yearData"`
	Eligibility   []aggregate.RankedEntry `json:"eligibility"`
}

// BuildTypeBreakdown filters vehicles and reports count, average positive
// range ("N/A" when none), the ten latest model years and CAFV eligibility.
func BuildTypeBreakdown(records []tabular.Record, f Filter) TypeBreakdown {
	tb := TypeBreakdown{Filter: f, Options: typeOptions(records), AvgRange: "N/A"}

	filtered := make([]tabular.Record, 0)
	for _, r := range records {
		if f.match(r) {
			filtered = append(filtered, r)
		}
	}
	tb.TotalVehicles = len(filtered)

	var sum float64
	var ranged int
	eligibility := aggregate.NewTally()
	withYear := make([]tabular.Record, 0, len(filtered))
	for _, r := range filtered {
		if v, ok := positiveRange(r); ok {
			sum += v
			ranged++
		}
		eligibility.Add(EligibilityStatus(r[FieldEligibility]), 1)
		if r.Has(FieldModelYear) {
			withYear = append(withYear, r)
		}
	}
	if ranged > 0 {
		tb.AvgRange = decimal.NewFromFloat(sum / float64(ranged)).StringFixed(1)
	}

	years := aggregate.Count(withYear, aggregate.FieldKey(FieldModelYear)).Entries()
	sort.SliceStable(years, func(i, j int) bool { return years[i].Label > years[j].Label })
	if len(years) > topYears {
		years = years[:topYears]
	}
	tb.YearData = years
	tb.Eligibility = eligibility.Entries()
	return tb
}

func typeOptions(records []tabular.Record) TypeOptions {
	opts := TypeOptions{Types: []string{}, Makes: []string{}, Years: []int{}, Ranges: RangeBuckets}
	seenType := make(map[string]bool)
	seenMake := make(map[string]bool)
	seenYear := make(map[int]bool)

	for _, r := range records {
		if t := r.Field(FieldType, ""); t != "" && !seenType[t] {
			seenType[t] = true
			opts.Types = append(opts.Types, t)
		}
		if m := r.Field(FieldMake, ""); m != "" && !seenMake[m] {
			seenMake[m] = true
			opts.Makes = append(opts.Makes, m)
		}
		if y, ok := numericYear(r); ok && !seenYear[y] {
			seenYear[y] = true
			opts.Years = append(opts.Years, y)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(opts.Years)))
	return opts
}
