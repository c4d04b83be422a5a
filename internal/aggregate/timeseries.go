package aggregate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"usdataexplorer/internal/tabular"
)

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Period is a calendar month
type Period struct {
	Year int `json:"year"`
	// Month is 1..12
	Month int `json:"month"`
}

// Token renders the period as "Mon YYYY"
func (p Period) Token() string {
	return fmt.Sprintf("%s %d", monthNames[p.Month-1], p.Year)
}

// Before orders periods chronologically
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// MonthIndex returns 1..12 for a three-letter English month name, 0 otherwise
func MonthIndex(name string) int {
	for i, m := range monthNames {
		if strings.EqualFold(m, name) {
			return i + 1
		}
	}
	return 0
}

// ParsePeriod accepts "MM/DD/YYYY" optionally followed by a time, or an
// already normalized "Mon YYYY". Anything else is rejected.
func ParsePeriod(s string) (Period, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Period{}, false
	}

	if strings.Contains(s, "/") {
		datePart := strings.Fields(s)[0]
		parts := strings.Split(datePart, "/")
		if len(parts) != 3 {
			return Period{}, false
		}
		month, err := strconv.Atoi(parts[0])
		if err != nil || month < 1 || month > 12 {
			return Period{}, false
		}
		day, err := strconv.Atoi(parts[1])
		if err != nil || day < 1 || day > 31 {
			return Period{}, false
		}
		year, err := strconv.Atoi(parts[2])
		if err != nil || year <= 0 {
			return Period{}, false
		}
		return Period{Year: year, Month: month}, true
	}

	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Period{}, false
	}
	month := MonthIndex(fields[0])
	if month == 0 {
		return Period{}, false
	}
	year, err := strconv.Atoi(fields[1])
	if err != nil || year <= 0 {
		return Period{}, false
	}
	return Period{Year: year, Month: month}, true
}

// Point is one month of a series with its change from the previous point
type Point struct {
	Date          string  `json:"date"`
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	Value         float64 `json:"value"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percentChange"`
}

// Period returns the point's calendar month
func (p Point) Period() Period {
	return Period{Year: p.Year, Month: p.Month}
}

// TimeSeries sums valueField per month of dateField. Rows with unparseable
// dates are skipped, months whose total is not positive are dropped, and the
// result is ordered by (year, month).
func TimeSeries(records []tabular.Record, dateField, valueField string) []Point {
	totals := make(map[Period]float64)
	for _, r := range records {
		p, ok := ParsePeriod(r.Field(dateField, ""))
		if !ok {
			continue
		}
		totals[p] += r.Float(valueField)
	}

	points := make([]Point, 0, len(totals))
	for p, v := range totals {
		if v <= 0 {
			continue
		}
		points = append(points, Point{Date: p.Token(), Year: p.Year, Month: p.Month, Value: v})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Period().Before(points[j].Period())
	})
	return points
}

// Deltas fills Change and PercentChange from each point's predecessor. The
// first point has both set to 0, as does any point whose predecessor is 0.
func Deltas(points []Point) []Point {
	out := append([]Point(nil), points...)
	for i := range out {
		if i == 0 {
			out[i].Change, out[i].PercentChange = 0, 0
			continue
		}
		prev := out[i-1].Value
		out[i].Change = out[i].Value - prev
		if prev != 0 {
			out[i].PercentChange = out[i].Change / prev * 100
		} else {
			out[i].PercentChange = 0
		}
	}
	return out
}
