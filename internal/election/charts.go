package election

import (
	"fmt"
	"sort"
	"strconv"

	"usdataexplorer/internal/aggregate"
)

// TrackedParties are always present in chart and trend party breakdowns
var TrackedParties = []string{Democrat, Republican, Libertarian, Other}

// PartyBreakdown holds votes and shares per party
type PartyBreakdown struct {
	Votes   map[string]int    `json:"votes"`
	Percent map[string]string `json:"percent"`
}

func newPartyBreakdown() PartyBreakdown {
	pb := PartyBreakdown{Votes: make(map[string]int), Percent: make(map[string]string)}
	for _, p := range TrackedParties {
		pb.Votes[p] = 0
	}
	return pb
}

func (pb PartyBreakdown) finish(total int) {
	for p, v := range pb.Votes {
		pb.Percent[p] = aggregate.Percent(float64(v), float64(total))
	}
}

// Share returns a party's percentage as a number
func (pb PartyBreakdown) Share(party string) float64 {
	f, _ := strconv.ParseFloat(pb.Percent[party], 64)
	return f
}

// DistrictLabel names a House district; "0" is an at-large seat
func DistrictLabel(district string) string {
	if district == "0" {
		return "At-Large"
	}
	return "District " + district
}

// ChartRow is one state, or one district for House results
type ChartRow struct {
	Key         string         `json:"key"`
	State       string         `json:"state"`
	StateCode   string         `json:"stateCode"`
	District    string         `json:"district,omitempty"`
	DisplayName string         `json:"displayName"`
	TotalVotes  int            `json:"totalVotes"`
	Parties     PartyBreakdown `json:"parties"`
	Candidates  []Candidate    `json:"candidates"`
}

// ChartRows builds the party comparison rows for one year. stateFilter,
// when set, keeps only that state. Rows are ordered by Democratic share,
// highest first.
func ChartRows(rows []Row, office Office, stateFilter string, threshold float64) []ChartRow {
	if stateFilter != "" {
		rows = FilterState(rows, stateFilter)
	}

	order := make([]string, 0)
	byKey := make(map[string]*ChartRow)
	details := make(map[string][]Candidate)

	for _, r := range rows {
		if r.State == "" || r.CandidateVotes == 0 || r.Candidate == "" {
			continue
		}

		key, display := r.State, r.State
		if office == House {
			key = fmt.Sprintf("%s-%s", r.State, r.District)
			display = DistrictLabel(r.District)
		}

		cr, ok := byKey[key]
		if !ok {
			cr = &ChartRow{
				Key:         key,
				State:       r.State,
				StateCode:   r.StatePO,
				DisplayName: display,
				TotalVotes:  r.TotalVotes,
				Parties:     newPartyBreakdown(),
			}
			if office == House {
				cr.District = r.District
			}
			byKey[key] = cr
			order = append(order, key)
		}

		cr.Parties.Votes[r.Party] += r.CandidateVotes
		details[key] = append(details[key], newCandidate(r, cr.TotalVotes))
	}

	out := make([]ChartRow, 0, len(order))
	for _, k := range order {
		cr := byKey[k]
		cr.Parties.finish(cr.TotalVotes)
		cr.Candidates = aggregate.FilterThreshold(details[k], candidateVotes, float64(cr.TotalVotes), threshold)
		sortCandidates(cr.Candidates)
		out = append(out, *cr)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Parties.Share(Democrat) > out[j].Parties.Share(Democrat)
	})
	return out
}

// Turnout reorders chart rows by total votes, highest first
func Turnout(rows []ChartRow) []ChartRow {
	out := append([]ChartRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalVotes > out[j].TotalVotes })
	return out
}

// Districts lists the House districts recorded for a state: at-large ("0")
// first, then numeric order.
func Districts(rows []Row, postal string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, r := range rows {
		if r.StatePO != postal || seen[r.District] {
			continue
		}
		seen[r.District] = true
		out = append(out, r.District)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i] == "0" || out[j] == "0" {
			return out[i] == "0" && out[j] != "0"
		}
		return districtNumber(out[i]) < districtNumber(out[j])
	})
	return out
}

func districtNumber(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// AvailableYears returns the distinct years in rows, ascending
func AvailableYears(rows []Row) []int {
	seen := make(map[int]bool)
	out := make([]int, 0)
	for _, r := range rows {
		if !seen[r.Year] {
			seen[r.Year] = true
			out = append(out, r.Year)
		}
	}
	sort.Ints(out)
	return out
}
