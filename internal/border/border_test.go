package border

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usdataexplorer/internal/aggregate"
	"usdataexplorer/internal/shared/testutil"
	"usdataexplorer/internal/tabular"
)

const (
	canada = "US-Canada Border"
	mexico = "US-Mexico Border"
)

func sample(t *testing.T) []tabular.Record {
	t.Helper()
	res, err := tabular.Parse(testutil.BorderCSV, tabular.Options{})
	require.NoError(t, err)
	require.Len(t, res.Records, 6)
	return res.Records
}

func TestBorderColor(t *testing.T) {
	assert.Equal(t, CanadaColor, BorderColor(canada))
	assert.Equal(t, MexicoColor, BorderColor(mexico))
	assert.Equal(t, NeutralColor, BorderColor(""))
}

func TestBuildOverview(t *testing.T) {
	ov := BuildOverview(sample(t))

	assert.Equal(t, float64(1830000), ov.TotalCrossings)
	assert.Equal(t, []aggregate.RankedEntry{
		{Label: "Pedestrians", Value: 1150000},
		{Label: "Personal Vehicles", Value: 490000},
		{Label: "Trucks", Value: 190000},
	}, ov.ByMeasure)
	assert.Equal(t, []string{mexico, canada}, aggregate.Labels(ov.ByBorder))
	assert.Equal(t, []string{"California", "Michigan", "Texas"}, aggregate.Labels(ov.ByState))
}

func TestBuildOverview_MissingMeasureIsUnknown(t *testing.T) {
	res, err := tabular.Parse("Measure,Value,Border\n,10,\nTrucks,abc,X\n", tabular.Options{})
	require.NoError(t, err)

	ov := BuildOverview(res.Records)
	assert.Equal(t, float64(10), ov.TotalCrossings)
	assert.Equal(t, aggregate.Unknown, ov.ByMeasure[0].Label)
	assert.Equal(t, float64(0), ov.ByMeasure[1].Value)
}

func TestPorts(t *testing.T) {
	pm := Ports(sample(t))

	require.Len(t, pm.Coordinates, 3)
	assert.Equal(t, []string{"San Ysidro", "Detroit", "El Paso"}, []string{
		pm.Coordinates[0].Port, pm.Coordinates[1].Port, pm.Coordinates[2].Port,
	})

	detroit := pm.Coordinates[1]
	assert.Equal(t, float64(610000), detroit.Value)
	assert.Equal(t, []string{"Personal Vehicles", "Trucks"}, detroit.Measures)
	assert.Equal(t, CanadaColor, detroit.Color)
	assert.InDelta(t, 42.332, detroit.Latitude, 1e-9)

	assert.Equal(t, MexicoColor, pm.Coordinates[0].Color)
	assert.Equal(t, aggregate.RankedEntry{Label: "San Ysidro", Value: 1150000}, pm.ByPort[0])
}

func TestPorts_SkipsRowsWithoutPosition(t *testing.T) {
	res, err := tabular.Parse("Port Name,Value,Latitude,Longitude\nA,5,,\nA,7,1.5,2.5\nA,3,1.5,3.5\n", tabular.Options{})
	require.NoError(t, err)

	pm := Ports(res.Records)
	assert.Len(t, pm.Coordinates, 2)
	assert.Equal(t, float64(15), pm.ByPort[0].Value)
}

func TestMeasureAnalysis(t *testing.T) {
	records := sample(t)

	tests := []struct {
		name     string
		filter   Filter
		total    float64
		measures []MeasureTotal
	}{
		{
			name:   "year",
			filter: Filter{Year: "2023"},
			total:  1280000,
			measures: []MeasureTotal{
				{Measure: "Pedestrians", Total: 600000, Percent: "46.9"},
				{Measure: "Personal Vehicles", Total: 490000, Percent: "38.3"},
				{Measure: "Trucks", Total: 190000, Percent: "14.8"},
			},
		},
		{
			name:     "border and state",
			filter:   Filter{Border: mexico, State: "Texas", Year: All},
			total:    70000,
			measures: []MeasureTotal{{Measure: "Trucks", Total: 70000, Percent: "100.0"}},
		},
		{
			name:     "no match",
			filter:   Filter{Year: "1999"},
			total:    0,
			measures: []MeasureTotal{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mb := MeasureAnalysis(records, tt.filter)
			assert.Equal(t, tt.total, mb.Total)
			assert.Equal(t, tt.measures, mb.Measures)
		})
	}
}

func TestMeasureAnalysis_Options(t *testing.T) {
	opts := MeasureAnalysis(sample(t), Filter{}).Options

	assert.Equal(t, []string{"2023", "2022"}, opts.Years)
	assert.Equal(t, []string{canada, mexico}, opts.Borders)
	assert.Equal(t, []string{"California", "Michigan", "Texas"}, opts.States)
	assert.Equal(t, []string{"Pedestrians", "Personal Vehicles", "Trucks"}, opts.Measures)
}

func TestYearOf(t *testing.T) {
	tests := map[string]string{
		"Jan 2023":               "2023",
		"03/01/2022 12:00:00 AM": "2022",
		"FY 2019":                "2019",
		"2019x":                  "",
		"":                       "",
	}
	for in, want := range tests {
		assert.Equal(t, want, yearOf(tabular.Record{FieldDate: in}), in)
	}
}

func TestTrends(t *testing.T) {
	tv := Trends(sample(t), Filter{})

	require.Len(t, tv.Points, 3)
	assert.Equal(t, "Mar 2022", tv.Points[0].Date)
	assert.Equal(t, float64(970000), tv.Points[1].Value)
	assert.Equal(t, float64(420000), tv.Points[1].Change)
	assert.Equal(t, float64(-660000), tv.Points[2].Change)

	require.NotNil(t, tv.Insights)
	assert.Equal(t, float64(310000), tv.Insights.LastValue)
	assert.Equal(t, "Feb 2023", tv.Insights.LastDate)
	assert.Equal(t, "Jan 2023", tv.Insights.Max.Date)
	assert.Equal(t, "Feb 2023", tv.Insights.Min.Date)
	assert.Equal(t, int64(610000), tv.Insights.Average)
	assert.Equal(t, TrendFluctuating, tv.Insights.RecentTrend)
	assert.Empty(t, tv.Options.Ports)
}

func TestTrends_Filtered(t *testing.T) {
	tv := Trends(sample(t), Filter{Measure: "Personal Vehicles", Port: "Detroit"})

	require.Len(t, tv.Points, 2)
	require.NotNil(t, tv.Insights)
	assert.Equal(t, int64(245000), tv.Insights.Average)
	assert.Equal(t, TrendInsufficient, tv.Insights.RecentTrend)

	tv = Trends(sample(t), Filter{Port: "El Paso"})
	assert.Len(t, tv.Points, 1)
	assert.Nil(t, tv.Insights)
}

func TestTrends_PortOptionsNeedMoreThanTenRows(t *testing.T) {
	var b strings.Builder
	b.WriteString("Port Name,Date,Value\n")
	for i := 0; i < 11; i++ {
		b.WriteString("Busy,Jan 2023,1\n")
	}
	for i := 0; i < 10; i++ {
		b.WriteString("Quiet,Jan 2023,1\n")
	}
	res, err := tabular.Parse(b.String(), tabular.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Busy"}, Trends(res.Records, Filter{}).Options.Ports)
}

func series(values ...float64) []aggregate.Point {
	points := make([]aggregate.Point, len(values))
	for i, v := range values {
		points[i] = aggregate.Point{Year: 2020, Month: i + 1, Value: v}
	}
	return aggregate.Deltas(points)
}

func TestBuildInsights_RecentTrend(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   string
	}{
		{"increasing", []float64{1, 2, 3, 4}, TrendIncreasing},
		{"decreasing", []float64{4, 3, 2, 1}, TrendDecreasing},
		{"flat step", []float64{1, 2, 2, 3}, TrendFluctuating},
		{"three points include the first", []float64{1, 2, 3}, TrendFluctuating},
		{"two points", []float64{1, 2}, TrendInsufficient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := BuildInsights(series(tt.values...))
			require.NotNil(t, in)
			assert.Equal(t, tt.want, in.RecentTrend)
		})
	}

	assert.Nil(t, BuildInsights(series(5)))
	assert.Nil(t, BuildInsights(nil))
}
