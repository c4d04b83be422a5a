package aggregate

import (
	"strings"

	"usdataexplorer/internal/tabular"
)

// Unknown is the key assigned to rows whose grouping or category field is empty
const Unknown = "Unknown"

// KeyFunc derives a group key from a record. An empty result is grouped
// under Unknown.
type KeyFunc func(tabular.Record) string

// FieldKey groups by the trimmed value of one field
func FieldKey(name string) KeyFunc {
	return func(r tabular.Record) string {
		return r.Field(name, "")
	}
}

// keyPartEscaper escapes the separator inside one composite key part, so
// ("x-y", "z") and ("x", "y-z") stay distinct.
var keyPartEscaper = strings.NewReplacer(`\`, `\\`, "-", `\-`)

// CompositeKey joins several fields with "-", keeping empty parts in place
// so the position of each value is preserved. A "-" or "\" inside a value
// is escaped with "\". The key is empty only when every part is empty.
func CompositeKey(names ...string) KeyFunc {
	return func(r tabular.Record) string {
		parts := make([]string, len(names))
		empty := true
		for i, n := range names {
			v := r.Field(n, "")
			if v != "" {
				empty = false
			}
			parts[i] = keyPartEscaper.Replace(v)
		}
		if empty {
			return ""
		}
		return strings.Join(parts, "-")
	}
}

// Spec describes one group-and-sum pass
type Spec struct {
	Key KeyFunc
	// Value is the field summed per row; empty counts each row as 1
	Value string
	// Category, when set, also accumulates per-category subtotals
	Category string
}

// Bucket accumulates the rows that share one key
type Bucket struct {
	Key        string
	Total      float64
	Categories []string
	Subtotals  map[string]float64
	// Rows holds indices into the input record slice
	Rows []int
}

// Subtotal returns the accumulated value for category, 0 when unseen
func (b *Bucket) Subtotal(category string) float64 {
	return b.Subtotals[category]
}

// Ranked returns the bucket's categories ranked by subtotal
func (b *Bucket) Ranked() []RankedEntry {
	entries := make([]RankedEntry, 0, len(b.Categories))
	for _, c := range b.Categories {
		entries = append(entries, RankedEntry{Label: c, Value: b.Subtotals[c]})
	}
	return Rank(entries)
}

// Groups is the output of GroupAndSum. Buckets keep first-seen order.
type Groups struct {
	order   []string
	buckets map[string]*Bucket
	total   float64
}

// Buckets returns buckets in first-seen key order
func (g *Groups) Buckets() []*Bucket {
	out := make([]*Bucket, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, g.buckets[k])
	}
	return out
}

// Get returns the bucket for key
func (g *Groups) Get(key string) (*Bucket, bool) {
	b, ok := g.buckets[key]
	return b, ok
}

// Keys returns group keys in first-seen order
func (g *Groups) Keys() []string {
	return append([]string(nil), g.order...)
}

// Len returns the number of buckets
func (g *Groups) Len() int {
	return len(g.order)
}

// Total is the sum of all bucket totals
func (g *Groups) Total() float64 {
	return g.total
}

// Entries converts buckets to (key, total) pairs in first-seen order
func (g *Groups) Entries() []RankedEntry {
	entries := make([]RankedEntry, 0, len(g.order))
	for _, k := range g.order {
		entries = append(entries, RankedEntry{Label: k, Value: g.buckets[k].Total})
	}
	return entries
}

// Ranked returns Entries sorted by descending total
func (g *Groups) Ranked() []RankedEntry {
	return Rank(g.Entries())
}

// GroupAndSum buckets records by spec.Key, summing spec.Value (or counting
// rows) into each bucket and, when spec.Category is set, into per-category
// subtotals. Non-numeric values contribute 0.
func GroupAndSum(records []tabular.Record, spec Spec) *Groups {
	keyFn := spec.Key
	if keyFn == nil {
		keyFn = func(tabular.Record) string { return "" }
	}

	g := &Groups{buckets: make(map[string]*Bucket)}

	for i, r := range records {
		key := keyFn(r)
		if key == "" {
			key = Unknown
		}

		b, ok := g.buckets[key]
		if !ok {
			b = &Bucket{Key: key, Subtotals: make(map[string]float64)}
			g.buckets[key] = b
			g.order = append(g.order, key)
		}

		value := 1.0
		if spec.Value != "" {
			value = r.Float(spec.Value)
		}

		b.Total += value
		b.Rows = append(b.Rows, i)
		g.total += value

		if spec.Category != "" {
			cat := r.Field(spec.Category, Unknown)
			if _, seen := b.Subtotals[cat]; !seen {
				b.Categories = append(b.Categories, cat)
			}
			b.Subtotals[cat] += value
		}
	}

	return g
}

// Count tallies rows per key; it is GroupAndSum without a value field
func Count(records []tabular.Record, key KeyFunc) *Groups {
	return GroupAndSum(records, Spec{Key: key})
}
