package aggregate

import (
	"sort"
)

// RankedEntry is a labelled value ready for display
type RankedEntry struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Rank returns a copy of entries sorted by descending value. Ties keep their
// input order.
func Rank(entries []RankedEntry) []RankedEntry {
	out := append([]RankedEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value > out[j].Value
	})
	return out
}

// TopN ranks entries and keeps the first n; n <= 0 keeps all
func TopN(entries []RankedEntry, n int) []RankedEntry {
	ranked := Rank(entries)
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Labels extracts entry labels in order
func Labels(entries []RankedEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Label
	}
	return out
}

// Tally accumulates values per label while remembering first-seen order. It
// backs views that add to several totals in one pass over the records.
type Tally struct {
	order  []string
	values map[string]float64
}

// NewTally returns an empty tally
func NewTally() *Tally {
	return &Tally{values: make(map[string]float64)}
}

// Add adds v to label; an empty label counts as Unknown
func (t *Tally) Add(label string, v float64) {
	if label == "" {
		label = Unknown
	}
	if _, ok := t.values[label]; !ok {
		t.order = append(t.order, label)
	}
	t.values[label] += v
}

// Get returns the accumulated value for label
func (t *Tally) Get(label string) float64 {
	return t.values[label]
}

// Len returns the number of labels
func (t *Tally) Len() int {
	return len(t.order)
}

// Entries returns labels with their totals in first-seen order
func (t *Tally) Entries() []RankedEntry {
	out := make([]RankedEntry, 0, len(t.order))
	for _, l := range t.order {
		out = append(out, RankedEntry{Label: l, Value: t.values[l]})
	}
	return out
}

// Ranked returns the tally sorted by descending value
func (t *Tally) Ranked() []RankedEntry {
	return Rank(t.Entries())
}
