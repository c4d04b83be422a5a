// Package datasets knows which CSV datasets the explorer serves, where to
// fetch them from and keeps their parsed records in memory.
package datasets

import (
	"errors"

	"usdataexplorer/internal/border"
	"usdataexplorer/internal/config"
	"usdataexplorer/internal/ev"
	api "usdataexplorer/pkg/contracts/api/v1"
)

// ErrUnknownDataset is returned for a key that is not in the registry
var ErrUnknownDataset = errors.New("unknown dataset")

// Descriptor describes one published dataset
type Descriptor struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	File  string `json:"file"`
	// Columns are expected in the header row. A missing column is logged;
	// accessors fall back to their defaults for it.
	Columns []string `json:"columns"`
}

var electionColumns = []string{"year", "state", "state_po", "candidate", "party_simplified", "candidatevotes", "totalvotes"}

var catalog = []Descriptor{
	{
		Key:     api.DatasetPresident,
		Title:   "U.S. President 1976-2020",
		File:    config.DefaultPresidentFile,
		Columns: electionColumns,
	},
	{
		Key:     api.DatasetSenate,
		Title:   "U.S. Senate 1976-2020",
		File:    config.DefaultSenateFile,
		Columns: electionColumns,
	},
	{
		Key:     api.DatasetHouse,
		Title:   "U.S. House 1976-2022",
		File:    config.DefaultHouseFile,
		Columns: append(append([]string{}, electionColumns...), "district"),
	},
	{
		Key:     api.DatasetEV,
		Title:   "Electric Vehicle Population",
		File:    config.DefaultEVFile,
		Columns: []string{ev.FieldMake, ev.FieldModel, ev.FieldModelYear, ev.FieldType, ev.FieldRange},
	},
	{
		Key:     api.DatasetBorder,
		Title:   "Border Crossing Entry Data",
		File:    config.DefaultBorderFile,
		Columns: []string{border.FieldPort, border.FieldState, border.FieldBorder, border.FieldDate, border.FieldMeasure, border.FieldValue},
	},
}

// Registry is the fixed, ordered set of datasets
type Registry struct {
	order []string
	byKey map[string]Descriptor
}

// NewRegistry builds the registry, taking file names from files where set
func NewRegistry(files map[string]string) *Registry {
	r := &Registry{byKey: make(map[string]Descriptor, len(catalog))}
	for _, d := range catalog {
		if name := files[d.Key]; name != "" {
			d.File = name
		}
		r.order = append(r.order, d.Key)
		r.byKey[d.Key] = d
	}
	return r
}

// Get looks a dataset up by key
func (r *Registry) Get(key string) (Descriptor, bool) {
	d, ok := r.byKey[key]
	return d, ok
}

// Keys returns every key in display order
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// Descriptors returns every dataset in display order
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.byKey[k])
	}
	return out
}

// Files maps each key to its file name
func (r *Registry) Files() map[string]string {
	out := make(map[string]string, len(r.order))
	for k, d := range r.byKey {
		out[k] = d.File
	}
	return out
}
