// Package api contains the request and response contracts of the explorer's
// HTTP API. Version v1 is the current API version.
package api

// Dataset keys accepted by the API
const (
	DatasetPresident = "president"
	DatasetSenate    = "senate"
	DatasetHouse     = "house"
	DatasetEV        = "ev"
	DatasetBorder    = "border"
)

// AggregateRequest asks for an ad-hoc group-and-sum over a dataset. With no
// Value rows are counted. Threshold drops groups below that share, in percent,
// of the grand total; Top keeps the largest groups.
type AggregateRequest struct {
	Dataset   string   `json:"dataset" validate:"required,oneof=president senate house ev border"`
	GroupBy   []string `json:"group_by" validate:"required,min=1,max=4,dive,required"`
	Value     string   `json:"value,omitempty"`
	Category  string   `json:"category,omitempty"`
	Top       int      `json:"top,omitempty" validate:"min=0,max=1000"`
	Threshold float64  `json:"threshold,omitempty" validate:"min=0,max=100"`
}

// AggregateRow is one group of an aggregation
type AggregateRow struct {
	Key        string             `json:"key"`
	Total      float64            `json:"total"`
	Percent    string             `json:"percent"`
	Rows       int                `json:"rows"`
	Categories map[string]float64 `json:"categories,omitempty"`
	Shares     map[string]string  `json:"shares,omitempty"`
}

// AggregateResponse is the result of an AggregateRequest
type AggregateResponse struct {
	Dataset string         `json:"dataset"`
	GroupBy []string       `json:"group_by"`
	Value   string         `json:"value,omitempty"`
	Total   float64        `json:"total"`
	Groups  int            `json:"groups"`
	Rows    []AggregateRow `json:"rows"`
}

// ExportRequest is an AggregateRequest rendered to a file format
type ExportRequest struct {
	AggregateRequest
	Format string `json:"format" validate:"required,oneof=csv xlsx json sqlite postgres"`
}

// ResultsTableQuery are the query parameters of the election results table
type ResultsTableQuery struct {
	Sort      string `json:"sort" validate:"omitempty,oneof=state winner totalVotes"`
	Direction string `json:"dir" validate:"omitempty,oneof=asc desc"`
}
