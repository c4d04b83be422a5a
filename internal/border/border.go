// Package border derives the border crossing entry views: totals by measure,
// port map markers, measure breakdowns and monthly trends with insights.
package border

import (
	"sort"
	"strconv"
	"strings"

	"usdataexplorer/internal/aggregate"
	"usdataexplorer/internal/tabular"
)

// Column names in the BTS border crossing entry file
const (
	FieldPort      = "Port Name"
	FieldState     = "State"
	FieldPortCode  = "Port Code"
	FieldBorder    = "Border"
	FieldDate      = "Date"
	FieldMeasure   = "Measure"
	FieldValue     = "Value"
	FieldLatitude  = "Latitude"
	FieldLongitude = "Longitude"
)

// All disables a filter field
const All = "all"

// minTrendPortRows is the row count a port needs to be offered as a trend filter
const minTrendPortRows = 10

// Marker colors
const (
	CanadaColor  = "#3b82f6"
	MexicoColor  = "#ef4444"
	NeutralColor = "#a3a3a3"
)

// BorderColor picks the marker color for a border name
func BorderColor(border string) string {
	switch {
	case strings.Contains(border, "Canada"):
		return CanadaColor
	case strings.Contains(border, "Mexico"):
		return MexicoColor
	default:
		return NeutralColor
	}
}

func active(v string) bool {
	return v != "" && v != All
}

func sumBy(records []tabular.Record, field string) *aggregate.Groups {
	return aggregate.GroupAndSum(records, aggregate.Spec{Key: aggregate.FieldKey(field), Value: FieldValue})
}

// distinct returns the sorted non-empty values of field
func distinct(records []tabular.Record, field string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, r := range records {
		v := r.Field(field, "")
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// Overview is the crossing summary
type Overview struct {
	TotalCrossings float64                 `json:"totalCrossings"`
	ByMeasure      []aggregate.RankedEntry `json:"byMeasure"`
	ByBorder       []aggregate.RankedEntry `json:"byBorder"`
	ByState        []aggregate.RankedEntry `json:"byState"`
}

// BuildOverview sums crossings by measure, border and state
func BuildOverview(records []tabular.Record) Overview {
	byMeasure := sumBy(records, FieldMeasure)
	return Overview{
		TotalCrossings: byMeasure.Total(),
		ByMeasure:      byMeasure.Ranked(),
		ByBorder:       sumBy(records, FieldBorder).Ranked(),
		ByState:        sumBy(records, FieldState).Ranked(),
	}
}

// Coordinate is a port marker. Rows sharing a port name and position are
// merged into one marker.
type Coordinate struct {
	Port      string   `json:"port"`
	State     string   `json:"state"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Value     float64  `json:"value"`
	Measures  []string `json:"measures"`
	Border    string   `json:"border"`
	Color     string   `json:"color"`
}

// PortMap is the per port view
type PortMap struct {
	ByPort      []aggregate.RankedEntry `json:"byPort"`
	ByState     []aggregate.RankedEntry `json:"byState"`
	Coordinates []Coordinate            `json:"coordinates"`
}

type coordKey struct {
	port     string
	lat, lon float64
}

// Ports totals crossings per port and state and builds map markers for rows
// with a usable latitude and longitude, largest first.
func Ports(records []tabular.Record) PortMap {
	index := make(map[coordKey]int)
	coords := make([]Coordinate, 0)

	for _, r := range records {
		lat, errLat := strconv.ParseFloat(r.Field(FieldLatitude, ""), 64)
		lon, errLon := strconv.ParseFloat(r.Field(FieldLongitude, ""), 64)
		if errLat != nil || errLon != nil {
			continue
		}

		port := r.Field(FieldPort, aggregate.Unknown)
		measure := r.Field(FieldMeasure, "")
		key := coordKey{port: port, lat: lat, lon: lon}

		i, ok := index[key]
		if !ok {
			border := r.Field(FieldBorder, "")
			coords = append(coords, Coordinate{
				Port:      port,
				State:     r.Field(FieldState, aggregate.Unknown),
				Latitude:  lat,
				Longitude: lon,
				Measures:  []string{},
				Border:    border,
				Color:     BorderColor(border),
			})
			i = len(coords) - 1
			index[key] = i
		}

		c := &coords[i]
		c.Value += r.Float(FieldValue)
		if measure != "" && !contains(c.Measures, measure) {
			c.Measures = append(c.Measures, measure)
		}
	}

	sort.SliceStable(coords, func(i, j int) bool { return coords[i].Value > coords[j].Value })

	return PortMap{
		ByPort:      sumBy(records, FieldPort).Ranked(),
		ByState:     sumBy(records, FieldState).Ranked(),
		Coordinates: coords,
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Filter narrows the measure and trend views. Empty or "all" fields match
// everything; Year matches the calendar year of Date.
type Filter struct {
	Border  string `json:"border,omitempty"`
	Year    string `json:"year,omitempty" validate:"omitempty,oneof=all|numeric"`
	State   string `json:"state,omitempty"`
	Measure string `json:"measure,omitempty"`
	Port    string `json:"port,omitempty"`
}

func (f Filter) match(r tabular.Record) bool {
	if active(f.Border) && r[FieldBorder] != f.Border {
		return false
	}
	if active(f.State) && r[FieldState] != f.State {
		return false
	}
	if active(f.Measure) && r[FieldMeasure] != f.Measure {
		return false
	}
	if active(f.Port) && r[FieldPort] != f.Port {
		return false
	}
	if active(f.Year) && yearOf(r) != f.Year {
		return false
	}
	return true
}

// Apply returns the records matching f
func (f Filter) Apply(records []tabular.Record) []tabular.Record {
	out := make([]tabular.Record, 0)
	for _, r := range records {
		if f.match(r) {
			out = append(out, r)
		}
	}
	return out
}

// yearOf returns the four digit year of the Date column, "" when it has none
func yearOf(r tabular.Record) string {
	if p, ok := aggregate.ParsePeriod(r.Field(FieldDate, "")); ok {
		return strconv.Itoa(p.Year)
	}
	d := r.Field(FieldDate, "")
	if len(d) < 4 {
		return ""
	}
	tail := d[len(d)-4:]
	for i := 0; i < len(tail); i++ {
		if tail[i] < '0' || tail[i] > '9' {
			return ""
		}
	}
	return tail
}

// MeasureTotal is one measure's share of the filtered crossings
type MeasureTotal struct {
	Measure string  `json:"measure"`
	Total   float64 `json:"total"`
	Percent string  `json:"percent"`
}

// MeasureOptions are the values offered by the measure filters
type MeasureOptions struct {
	Borders  []string `json:"borders"`
	Years    []string `json:"years"`
	States   []string `json:"states"`
	Measures []string `json:"measures"`
}

// MeasureBreakdown is the filtered per measure view
type MeasureBreakdown struct {
	Options  MeasureOptions `json:"options"`
	Filter   Filter         `json:"filter"`
	Total    float64        `json:"total"`
	Measures []MeasureTotal `json:"measures"`
}

// MeasureAnalysis totals crossings per measure after filtering by border,
// year and state. Rows without a measure are ignored.
func MeasureAnalysis(records []tabular.Record, f Filter) MeasureBreakdown {
	filtered := Filter{Border: f.Border, Year: f.Year, State: f.State}.Apply(records)

	withMeasure := make([]tabular.Record, 0, len(filtered))
	for _, r := range filtered {
		if r.Has(FieldMeasure) {
			withMeasure = append(withMeasure, r)
		}
	}
	groups := sumBy(withMeasure, FieldMeasure)
	total := groups.Total()

	measures := make([]MeasureTotal, 0, groups.Len())
	for _, e := range groups.Ranked() {
		measures = append(measures, MeasureTotal{
			Measure: e.Label,
			Total:   e.Value,
			Percent: aggregate.Percent(e.Value, total),
		})
	}

	return MeasureBreakdown{
		Options:  measureOptions(records),
		Filter:   f,
		Total:    total,
		Measures: measures,
	}
}

func measureOptions(records []tabular.Record) MeasureOptions {
	seen := make(map[string]bool)
	years := make([]string, 0)
	for _, r := range records {
		if y := yearOf(r); y != "" && !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))

	return MeasureOptions{
		Borders:  distinct(records, FieldBorder),
		Years:    years,
		States:   distinct(records, FieldState),
		Measures: distinct(records, FieldMeasure),
	}
}
