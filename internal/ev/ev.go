// Package ev derives the electric vehicle population views: fleet overview,
// geography, range evolution, model comparison and type breakdown.
package ev

import (
	"math"
	"regexp"
	"sort"
	"strconv"

	"usdataexplorer/internal/aggregate"
	"usdataexplorer/internal/tabular"
)

// Column names in the Washington State EV population file
const (
	FieldMake        = "Make"
	FieldModel       = "Model"
	FieldType        = "Electric Vehicle Type"
	FieldModelYear   = "Model Year"
	FieldRange       = "Electric Range"
	FieldCounty      = "County"
	FieldCity        = "City"
	FieldEligibility = "Clean Alternative Fuel Vehicle (CAFV) Eligibility"
	FieldLocation    = "Vehicle Location"
	// FieldLocationAlt is the spelling used by some exports of the file
	FieldLocationAlt = "VehicleLocation"
)

const (
	topMakes           = 15
	minRangeYear       = 2010
	topVehiclesPerYear = 5
	minModelCount      = 5
	topCounties        = 5
	topYears           = 10
)

// numericYear reads the model year when it starts with an integer
func numericYear(r tabular.Record) (int, bool) {
	y := r.Field(FieldModelYear, "")
	if y == "" {
		return 0, false
	}
	c := y[0]
	if (c == '-' || c == '+') && len(y) > 1 {
		c = y[1]
	}
	if c < '0' || c > '9' {
		return 0, false
	}
	return tabular.ParseInt(y), true
}

// positiveRange returns the electric range when it is a positive number
func positiveRange(r tabular.Record) (float64, bool) {
	v := r.Float(FieldRange)
	return v, v > 0
}

// Overview is the fleet summary
type Overview struct {
	TotalVehicles int                     `json:"totalVehicles"`
	ByMake        []aggregate.RankedEntry `json:"byMake"`
	ByType        []aggregate.RankedEntry `json:"byType"`
	ByYear        []aggregate.RankedEntry `json:"byYear"`
	ByCounty      []aggregate.RankedEntry `json:"byCounty"`
}

// BuildOverview counts vehicles by make (top 15), type, model year and county
func BuildOverview(records []tabular.Record) Overview {
	years := make([]tabular.Record, 0, len(records))
	for _, r := range records {
		if _, ok := numericYear(r); ok {
			years = append(years, r)
		}
	}
	byYear := aggregate.Count(years, aggregate.FieldKey(FieldModelYear)).Entries()
	sort.SliceStable(byYear, func(i, j int) bool { return byYear[i].Label < byYear[j].Label })

	return Overview{
		TotalVehicles: len(records),
		ByMake:        aggregate.TopN(aggregate.Count(records, aggregate.FieldKey(FieldMake)).Entries(), topMakes),
		ByType:        aggregate.Count(records, aggregate.FieldKey(FieldType)).Ranked(),
		ByYear:        byYear,
		ByCounty:      aggregate.Count(records, aggregate.FieldKey(FieldCounty)).Ranked(),
	}
}

var pointPattern = regexp.MustCompile(`POINT \(([^ ]+) ([^)]+)\)`)

// ParsePoint extracts longitude and latitude from a WKT "POINT (lon lat)"
func ParsePoint(s string) (lon, lat float64, ok bool) {
	m := pointPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	lon, err1 := strconv.ParseFloat(m[1], 64)
	lat, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lon, lat, true
}

// Location is one registered vehicle position
type Location struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Make      string  `json:"make"`
	Model     string  `json:"model"`
	County    string  `json:"county"`
	City      string  `json:"city"`
}

// Geography groups vehicles by place
type Geography struct {
	ByCounty  []aggregate.RankedEntry `json:"byCounty"`
	ByCity    []aggregate.RankedEntry `json:"byCity"`
	Locations []Location              `json:"locations"`
}

// BuildGeography counts vehicles per county and city and collects every
// parseable vehicle position.
func BuildGeography(records []tabular.Record) Geography {
	locations := make([]Location, 0)
	for _, r := range records {
		raw := r.Field(FieldLocation, r.Field(FieldLocationAlt, ""))
		lon, lat, ok := ParsePoint(raw)
		if !ok {
			continue
		}
		locations = append(locations, Location{
			Longitude: lon,
			Latitude:  lat,
			Make:      r.Field(FieldMake, aggregate.Unknown),
			Model:     r.Field(FieldModel, aggregate.Unknown),
			County:    r.Field(FieldCounty, aggregate.Unknown),
			City:      r.Field(FieldCity, aggregate.Unknown),
		})
	}

	return Geography{
		ByCounty:  aggregate.Count(records, aggregate.FieldKey(FieldCounty)).Ranked(),
		ByCity:    aggregate.Count(records, aggregate.FieldKey(FieldCity)).Ranked(),
		Locations: locations,
	}
}

// RangedVehicle is a make and model with its electric range
type RangedVehicle struct {
	Make  string  `json:"make"`
	Model string  `json:"model"`
	Range float64 `json:"range"`
}

// YearRange summarizes electric range for one model year
type YearRange struct {
	Year     int             `json:"year"`
	AvgRange int             `json:"avgRange"`
	Count    int             `json:"count"`
	Vehicles []RangedVehicle `json:"vehicles"`
}

// RangeByYear averages the positive electric ranges of each model year from
// 2010 on, listing the five longest-range vehicles per year.
func RangeByYear(records []tabular.Record) []YearRange {
	type acc struct {
		sum      float64
		vehicles []RangedVehicle
	}
	groups := make(map[int]*acc)

	for _, r := range records {
		year, ok := numericYear(r)
		if !ok || year < minRangeYear {
			continue
		}
		rng, ok := positiveRange(r)
		if !ok {
			continue
		}
		a, exists := groups[year]
		if !exists {
			a = &acc{}
			groups[year] = a
		}
		a.sum += rng
		a.vehicles = append(a.vehicles, RangedVehicle{
			Make:  r.Field(FieldMake, aggregate.Unknown),
			Model: r.Field(FieldModel, aggregate.Unknown),
			Range: rng,
		})
	}

	out := make([]YearRange, 0, len(groups))
	for year, a := range groups {
		vehicles := a.vehicles
		sort.SliceStable(vehicles, func(i, j int) bool { return vehicles[i].Range > vehicles[j].Range })
		if len(vehicles) > topVehiclesPerYear {
			vehicles = vehicles[:topVehiclesPerYear]
		}
		out = append(out, YearRange{
			Year:     year,
			AvgRange: int(math.Round(a.sum / float64(len(a.vehicles)))),
			Count:    len(a.vehicles),
			Vehicles: vehicles,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
