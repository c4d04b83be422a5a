package border

import (
	"sort"

	"usdataexplorer/internal/aggregate"
	"usdataexplorer/internal/tabular"
)

// Recent trend labels
const (
	TrendIncreasing   = "increasing"
	TrendDecreasing   = "decreasing"
	TrendFluctuating  = "fluctuating"
	TrendInsufficient = "insufficient data"
)

// TrendOptions are the values offered by the trend filters
type TrendOptions struct {
	Measures []string `json:"measures"`
	Borders  []string `json:"borders"`
	Ports    []string `json:"ports"`
}

// Insights summarizes a monthly series
type Insights struct {
	LastValue   float64         `json:"lastValue"`
	LastDate    string          `json:"lastDate"`
	Max         aggregate.Point `json:"max"`
	Min         aggregate.Point `json:"min"`
	Average     int64           `json:"average"`
	RecentTrend string          `json:"recentTrend"`
}

// TrendView is the filtered monthly series with its summary
type TrendView struct {
	Options  TrendOptions      `json:"options"`
	Filter   Filter            `json:"filter"`
	Points   []aggregate.Point `json:"points"`
	Insights *Insights         `json:"insights"`
}

// Trends builds the monthly crossing series for the rows matching measure,
// border and port, with month over month changes.
func Trends(records []tabular.Record, f Filter) TrendView {
	filtered := Filter{Measure: f.Measure, Border: f.Border, Port: f.Port}.Apply(records)
	points := aggregate.Deltas(aggregate.TimeSeries(filtered, FieldDate, FieldValue))

	return TrendView{
		Options:  trendOptions(records),
		Filter:   f,
		Points:   points,
		Insights: BuildInsights(points),
	}
}

func trendOptions(records []tabular.Record) TrendOptions {
	rows := aggregate.NewTally()
	for _, r := range records {
		if p := r.Field(FieldPort, ""); p != "" {
			rows.Add(p, 1)
		}
	}
	ports := make([]string, 0)
	for _, e := range rows.Entries() {
		if e.Value > minTrendPortRows {
			ports = append(ports, e.Label)
		}
	}
	sort.Strings(ports)

	return TrendOptions{
		Measures: distinct(records, FieldMeasure),
		Borders:  distinct(records, FieldBorder),
		Ports:    ports,
	}
}

// BuildInsights summarizes points produced by Deltas. It returns nil for
// fewer than two points. The recent trend looks at the changes of the last
// three points.
func BuildInsights(points []aggregate.Point) *Insights {
	if len(points) < 2 {
		return nil
	}

	last := points[len(points)-1]
	in := &Insights{
		LastValue: last.Value,
		LastDate:  last.Date,
		Max:       points[0],
		Min:       points[0],
	}

	var sum float64
	for _, p := range points {
		sum += p.Value
		if p.Value > in.Max.Value {
			in.Max = p
		}
		if p.Value < in.Min.Value {
			in.Min = p
		}
	}
	in.Average = int64(aggregate.Round(sum/float64(len(points)), 0))
	in.RecentTrend = recentTrend(points)
	return in
}

func recentTrend(points []aggregate.Point) string {
	if len(points) < 3 {
		return TrendInsufficient
	}
	recent := points[len(points)-3:]
	up, down := true, true
	for _, p := range recent {
		if p.Change <= 0 {
			up = false
		}
		if p.Change >= 0 {
			down = false
		}
	}
	switch {
	case up:
		return TrendIncreasing
	case down:
		return TrendDecreasing
	default:
		return TrendFluctuating
	}
}
