package election

import (
	"sort"
	"strconv"
	"strings"

	"usdataexplorer/internal/aggregate"
	"usdataexplorer/internal/tabular"
)

// Candidate is one candidate line in a state or district result
type Candidate struct {
	Name       string `json:"name"`
	Party      string `json:"party"`
	Votes      int    `json:"votes"`
	Percentage string `json:"percentage"`
	Color      string `json:"color"`
}

func newCandidate(r Row, total int) Candidate {
	return Candidate{
		Name:       r.Candidate,
		Party:      r.Party,
		Votes:      r.CandidateVotes,
		Percentage: aggregate.Percent(float64(r.CandidateVotes), float64(total)),
		Color:      PartyColor(r.Party),
	}
}

func sortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Votes > cs[j].Votes })
}

func candidateVotes(c Candidate) float64 { return float64(c.Votes) }

// groupByState sums candidatevotes per state and party_simplified over the
// rows accepted by keep. Bucket row indices point into the returned slice.
func groupByState(rows []Row, key func(Row) string, keep func(Row) bool) ([]Row, *aggregate.Groups) {
	kept := make([]Row, 0, len(rows))
	records := make([]tabular.Record, 0, len(rows))
	for _, r := range rows {
		if !keep(r) {
			continue
		}
		kept = append(kept, r)
		records = append(records, tabular.Record{
			"state":            key(r),
			"candidatevotes":   strconv.Itoa(r.CandidateVotes),
			"party_simplified": r.Party,
		})
	}
	groups := aggregate.GroupAndSum(records, aggregate.Spec{
		Key:      aggregate.FieldKey("state"),
		Value:    "candidatevotes",
		Category: "party_simplified",
	})
	return kept, groups
}

// StateResult is the map view of one state
type StateResult struct {
	State      string      `json:"state"`
	StateCode  string      `json:"stateCode"`
	TotalVotes int         `json:"totalVotes"`
	DemVotes   int         `json:"demVotes"`
	RepVotes   int         `json:"repVotes"`
	DemPercent string      `json:"demPercent"`
	RepPercent string      `json:"repPercent"`
	Margin     float64     `json:"margin"`
	Color      string      `json:"color"`
	Winner     *Candidate  `json:"winner,omitempty"`
	Candidates []Candidate `json:"candidates"`
}

// StateResults builds the map view for one year's rows, keyed by postal
// code. Dem and Rep percentages are shares of the two-party vote; candidate
// percentages are shares of the state's total vote.
func StateResults(rows []Row, palette MarginPalette) map[string]*StateResult {
	palette = palette.WithDefaults()
	kept, groups := groupByState(rows, Row.StateKey, func(r Row) bool { return r.StateKey() != "" })
	results := make(map[string]*StateResult, groups.Len())

	for _, b := range groups.Buckets() {
		first := kept[b.Rows[0]]
		res := &StateResult{
			State:      first.State,
			StateCode:  b.Key,
			TotalVotes: first.TotalVotes,
			DemVotes:   int(b.Subtotal(Democrat)),
			RepVotes:   int(b.Subtotal(Republican)),
			Candidates: []Candidate{},
		}
		for _, i := range b.Rows {
			if kept[i].CandidateVotes > 0 {
				res.Candidates = append(res.Candidates, newCandidate(kept[i], res.TotalVotes))
			}
		}
		results[b.Key] = res
	}

	for _, res := range results {
		sortCandidates(res.Candidates)

		major := float64(res.DemVotes + res.RepVotes)
		res.DemPercent = aggregate.Percent(float64(res.DemVotes), major)
		res.RepPercent = aggregate.Percent(float64(res.RepVotes), major)

		if major == 0 {
			res.Color = palette.NoData
			if len(res.Candidates) > 0 {
				res.Winner = &res.Candidates[0]
			}
			continue
		}

		dem := aggregate.PercentOf(float64(res.DemVotes), major).InexactFloat64()
		rep := aggregate.PercentOf(float64(res.RepVotes), major).InexactFloat64()
		res.Color = palette.Color(dem, rep)

		leading := Republican
		if dem > rep {
			leading = Democrat
		}
		res.Margin = aggregate.Round(dem-rep, 1)
		if res.Margin < 0 {
			res.Margin = -res.Margin
		}
		for i := range res.Candidates {
			if res.Candidates[i].Party == leading {
				res.Winner = &res.Candidates[i]
				break
			}
		}
	}

	return results
}

// WinningPartyByState returns the party with the most candidate votes in
// rows. The first party to reach the maximum wins a tie; "" for no rows.
func WinningPartyByState(rows []Row) string {
	tally := aggregate.NewTally()
	for _, r := range rows {
		tally.Add(r.Party, float64(r.CandidateVotes))
	}
	ranked := tally.Ranked()
	if len(ranked) == 0 {
		return ""
	}
	return ranked[0].Label
}

// SortKey selects the results table ordering
type SortKey string

const (
	SortByState      SortKey = "state"
	SortByWinner     SortKey = "winner"
	SortByTotalVotes SortKey = "totalVotes"
)

// ParseSortKey defaults to SortByState for unknown keys
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortByWinner, SortByTotalVotes:
		return SortKey(s)
	}
	return SortByState
}

// Direction is asc or desc
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection defaults to Asc
func ParseDirection(s string) Direction {
	if strings.EqualFold(s, string(Desc)) {
		return Desc
	}
	return Asc
}

// TableRow is one state in the results table
type TableRow struct {
	State      string      `json:"state"`
	TotalVotes int         `json:"totalVotes"`
	Winner     *Candidate  `json:"winner,omitempty"`
	Candidates []Candidate `json:"candidates"`
}

func (t TableRow) winnerName() string {
	if t.Winner == nil {
		return ""
	}
	return t.Winner.Name
}

// ResultsTable lists each state's candidates with at least threshold percent
// of the state total, sorted by votes. Rows without a state, candidate or
// votes are skipped.
func ResultsTable(rows []Row, key SortKey, dir Direction, threshold float64) []TableRow {
	kept, groups := groupByState(rows, func(r Row) string { return r.State }, func(r Row) bool {
		return r.State != "" && r.CandidateVotes != 0 && r.Candidate != ""
	})

	out := make([]TableRow, 0, groups.Len())
	for _, b := range groups.Buckets() {
		tr := TableRow{State: b.Key, TotalVotes: kept[b.Rows[0]].TotalVotes}
		details := make([]Candidate, 0, len(b.Rows))
		for _, i := range b.Rows {
			details = append(details, newCandidate(kept[i], tr.TotalVotes))
		}
		tr.Candidates = aggregate.FilterThreshold(details, candidateVotes, float64(tr.TotalVotes), threshold)
		sortCandidates(tr.Candidates)
		if len(tr.Candidates) > 0 {
			w := tr.Candidates[0]
			tr.Winner = &w
		}
		out = append(out, tr)
	}

	less := func(i, j int) bool {
		switch key {
		case SortByWinner:
			return out[i].winnerName() < out[j].winnerName()
		case SortByTotalVotes:
			return out[i].TotalVotes < out[j].TotalVotes
		default:
			return out[i].State < out[j].State
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if dir == Desc {
			return less(j, i)
		}
		return less(i, j)
	})
	return out
}
