// Package election turns parsed MIT Election Lab result files into the
// map, table, chart and trend views served by the explorer.
package election

import (
	"strings"

	"usdataexplorer/internal/tabular"
)

// Office identifies one of the published election result files
type Office string

const (
	President Office = "PRESIDENT"
	Senate    Office = "SENATE"
	House     Office = "HOUSE"
)

// Offices lists every supported office
var Offices = []Office{President, Senate, House}

// ParseOffice accepts an office name in any case
func ParseOffice(s string) (Office, bool) {
	o := Office(strings.ToUpper(strings.TrimSpace(s)))
	switch o {
	case President, Senate, House:
		return o, true
	}
	return "", false
}

// DatasetKey is the dataset registry key holding this office's results
func (o Office) DatasetKey() string {
	return strings.ToLower(string(o))
}

// Party labels used by party_simplified
const (
	Democrat    = "DEMOCRAT"
	Republican  = "REPUBLICAN"
	Libertarian = "LIBERTARIAN"
	Other       = "OTHER"
)

// Row is one candidate result with numeric fields already converted
type Row struct {
	Year           int    `json:"year"`
	State          string `json:"state"`
	StatePO        string `json:"state_po"`
	District       string `json:"district,omitempty"`
	Candidate      string `json:"candidate"`
	Party          string `json:"party_simplified"`
	CandidateVotes int    `json:"candidatevotes"`
	TotalVotes     int    `json:"totalvotes"`
}

// StateKey is the postal code, or the state name for files without one
func (r Row) StateKey() string {
	if r.StatePO != "" {
		return r.StatePO
	}
	return r.State
}

// Normalize converts parsed records into rows. Records without a year or
// with an empty candidatevotes cell are dropped and counted; non-numeric
// vote counts become 0 and a blank party_simplified becomes OTHER.
func Normalize(records []tabular.Record) ([]Row, int) {
	rows := make([]Row, 0, len(records))
	dropped := 0

	for _, rec := range records {
		if !rec.Has("year") || !rec.Has("candidatevotes") {
			dropped++
			continue
		}
		rows = append(rows, Row{
			Year:           rec.Int("year"),
			State:          rec.Field("state", ""),
			StatePO:        rec.Field("state_po", ""),
			District:       rec.Field("district", ""),
			Candidate:      rec.Field("candidate", ""),
			Party:          rec.Field("party_simplified", Other),
			CandidateVotes: rec.Int("candidatevotes"),
			TotalVotes:     rec.Int("totalvotes"),
		})
	}
	return rows, dropped
}

// FilterYear keeps rows for one election year
func FilterYear(rows []Row, year int) []Row {
	out := make([]Row, 0)
	for _, r := range rows {
		if r.Year == year {
			out = append(out, r)
		}
	}
	return out
}

// FilterState keeps rows whose postal code or state name matches state
func FilterState(rows []Row, state string) []Row {
	out := make([]Row, 0)
	for _, r := range rows {
		if strings.EqualFold(r.StatePO, state) || strings.EqualFold(r.State, state) {
			out = append(out, r)
		}
	}
	return out
}
