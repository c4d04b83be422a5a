package election

import (
	"sort"
	"strconv"

	"usdataexplorer/internal/aggregate"
)

// TrendEntity is a state, or a district for House results, that appears in
// at least one year.
type TrendEntity struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	StateCode   string `json:"stateCode"`
	District    string `json:"district,omitempty"`
}

// TrendPoint is one year of an entity's or the nation's results
type TrendPoint struct {
	Year       int            `json:"year"`
	TotalVotes int            `json:"totalVotes"`
	Parties    PartyBreakdown `json:"parties"`
	// Margin is the Democratic share minus the Republican share
	Margin float64 `json:"margin"`
}

func (p *TrendPoint) finish() {
	p.Parties.finish(p.TotalVotes)
	p.Margin = aggregate.Round(p.Parties.Share(Democrat)-p.Parties.Share(Republican), 1)
}

// TrendData indexes every year's per-entity party totals
type TrendData struct {
	years    []int
	entities []TrendEntity
	points   map[int]map[string]*TrendPoint
}

// Trends groups all years of rows by state (or state and district for House)
func Trends(rows []Row, office Office) *TrendData {
	td := &TrendData{points: make(map[int]map[string]*TrendPoint)}
	known := make(map[string]bool)

	for _, r := range rows {
		if r.Year == 0 || r.State == "" || r.CandidateVotes == 0 {
			continue
		}

		key, display, district := r.StatePO, r.State, ""
		if office == House {
			district = r.District
			key = r.StatePO + "-" + district
			display = r.State + " " + DistrictLabel(district)
		}

		year, ok := td.points[r.Year]
		if !ok {
			year = make(map[string]*TrendPoint)
			td.points[r.Year] = year
			td.years = append(td.years, r.Year)
		}
		p, ok := year[key]
		if !ok {
			p = &TrendPoint{Year: r.Year, TotalVotes: r.TotalVotes, Parties: newPartyBreakdown()}
			year[key] = p
		}
		p.Parties.Votes[r.Party] += r.CandidateVotes

		if !known[key] {
			known[key] = true
			td.entities = append(td.entities, TrendEntity{Key: key, DisplayName: display, StateCode: r.StatePO, District: district})
		}
	}

	sort.Ints(td.years)
	for _, year := range td.points {
		for _, p := range year {
			p.finish()
		}
	}
	return td
}

// Years returns the years with data, ascending
func (td *TrendData) Years() []int {
	return append([]int(nil), td.years...)
}

// Entities lists entities in first-seen order, optionally only one state's
func (td *TrendData) Entities(stateCode string) []TrendEntity {
	out := make([]TrendEntity, 0, len(td.entities))
	for _, e := range td.entities {
		if stateCode == "" || e.StateCode == stateCode {
			out = append(out, e)
		}
	}
	return out
}

// Series returns the entity's points for each year it appears in
func (td *TrendData) Series(key string) []TrendPoint {
	out := make([]TrendPoint, 0)
	for _, y := range td.years {
		if p, ok := td.points[y][key]; ok {
			out = append(out, *p)
		}
	}
	return out
}

// National sums every entity per year
func (td *TrendData) National() []TrendPoint {
	out := make([]TrendPoint, 0, len(td.years))
	for _, y := range td.years {
		np := TrendPoint{Year: y, Parties: newPartyBreakdown()}
		for _, p := range td.points[y] {
			np.TotalVotes += p.TotalVotes
			for party, v := range p.Parties.Votes {
				np.Parties.Votes[party] += v
			}
		}
		np.finish()
		out = append(out, np)
	}
	return out
}

// TurnoutSeries converts points to (year, total votes) entries in year order
func TurnoutSeries(points []TrendPoint) []aggregate.RankedEntry {
	out := make([]aggregate.RankedEntry, len(points))
	for i, p := range points {
		out[i] = aggregate.RankedEntry{Label: strconv.Itoa(p.Year), Value: float64(p.TotalVotes)}
	}
	return out
}
