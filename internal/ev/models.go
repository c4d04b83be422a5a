package ev

import (
	"sort"
	"strings"

	"usdataexplorer/internal/aggregate"
	"usdataexplorer/internal/tabular"
)

// MaxCompared caps how many models one comparison can include
const MaxCompared = 5

// ModelSummary is a catalog entry for a make and model
type ModelSummary struct {
	ID    string `json:"id"`
	Make  string `json:"make"`
	Model string `json:"model"`
	Count int    `json:"count"`
}

func modelID(mk, model string) string {
	return mk + " " + model
}

// ModelCatalog lists every make and model with at least five registered
// vehicles, most common first.
func ModelCatalog(records []tabular.Record) []ModelSummary {
	order := make([]string, 0)
	byID := make(map[string]*ModelSummary)

	for _, r := range records {
		mk, model := r.Field(FieldMake, ""), r.Field(FieldModel, "")
		if mk == "" || model == "" {
			continue
		}
		id := modelID(mk, model)
		m, ok := byID[id]
		if !ok {
			m = &ModelSummary{ID: id, Make: mk, Model: model}
			byID[id] = m
			order = append(order, id)
		}
		m.Count++
	}

	out := make([]ModelSummary, 0, len(order))
	for _, id := range order {
		if byID[id].Count >= minModelCount {
			out = append(out, *byID[id])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// ModelDetail is one column of a model comparison
type ModelDetail struct {
	ModelSummary
	AvgRange      int                     `json:"avgRange"`
	Years         []int                   `json:"years"`
	TypeBreakdown []aggregate.RankedEntry `json:"typeBreakdown"`
	Counties      []aggregate.RankedEntry `json:"counties"`
}

// CompareModels details each requested "Make Model" id. Ids are matched
// against the full make and model, so makes containing spaces resolve
// correctly. Unknown ids produce an entry with a zero count.
func CompareModels(records []tabular.Record, ids []string) []ModelDetail {
	wanted := make(map[string][]tabular.Record, len(ids))
	for _, id := range ids {
		wanted[id] = nil
	}
	for _, r := range records {
		id := modelID(r.Field(FieldMake, ""), r.Field(FieldModel, ""))
		if _, ok := wanted[id]; ok {
			wanted[id] = append(wanted[id], r)
		}
	}

	out := make([]ModelDetail, 0, len(ids))
	for _, id := range ids {
		vehicles := wanted[id]
		d := ModelDetail{
			ModelSummary:  ModelSummary{ID: id, Count: len(vehicles)},
			Years:         []int{},
			TypeBreakdown: aggregate.Count(vehicles, aggregate.FieldKey(FieldType)).Entries(),
			Counties:      aggregate.TopN(aggregate.Count(vehicles, aggregate.FieldKey(FieldCounty)).Entries(), topCounties),
		}
		if len(vehicles) > 0 {
			d.Make = vehicles[0].Field(FieldMake, "")
			d.Model = vehicles[0].Field(FieldModel, "")
		} else if mk, model, ok := strings.Cut(id, " "); ok {
			d.Make, d.Model = mk, model
		}

		var sum float64
		var ranged int
		seenYears := make(map[int]bool)
		for _, v := range vehicles {
			if rng, ok := positiveRange(v); ok {
				sum += rng
				ranged++
			}
			if y, ok := numericYear(v); ok && !seenYears[y] {
				seenYears[y] = true
				d.Years = append(d.Years, y)
			}
		}
		if ranged > 0 {
			d.AvgRange = int(aggregate.Round(sum/float64(ranged), 0))
		}
		sort.Ints(d.Years)
		out = append(out, d)
	}
	return out
}
