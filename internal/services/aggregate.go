package services

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"usdataexplorer/internal/aggregate"
	"usdataexplorer/internal/exporter"
	"usdataexplorer/internal/tabular"
	api "usdataexplorer/pkg/contracts/api/v1"
)

// AggregateRecords groups records by req.GroupBy, summing req.Value (or
// counting rows) with optional per-category subtotals. Groups are ranked by
// total; Threshold and Top are applied after ranking. Every referenced
// column must be one of headers. req.Dataset only labels the response.
func AggregateRecords(headers []string, records []tabular.Record, req api.AggregateRequest) (*api.AggregateResponse, error) {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	columns := append(append([]string(nil), req.GroupBy...), req.Value, req.Category)
	for _, col := range columns {
		if col != "" && !known[col] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
	}

	groups := aggregate.GroupAndSum(records, aggregate.Spec{
		Key:      aggregate.CompositeKey(req.GroupBy...),
		Value:    req.Value,
		Category: req.Category,
	})
	total := groups.Total()

	entries := groups.Ranked()
	if req.Threshold > 0 {
		entries = aggregate.FilterThreshold(entries, func(e aggregate.RankedEntry) float64 { return e.Value }, total, req.Threshold)
	}
	entries = aggregate.TopN(entries, req.Top)

	rows := make([]api.AggregateRow, 0, len(entries))
	for _, e := range entries {
		b, _ := groups.Get(e.Label)
		row := api.AggregateRow{
			Key:     b.Key,
			Total:   b.Total,
			Percent: aggregate.Percent(b.Total, total),
			Rows:    len(b.Rows),
		}
		if req.Category != "" {
			row.Categories = maps.Clone(b.Subtotals)
			row.Shares = aggregate.Percentages(b)
		}
		rows = append(rows, row)
	}

	return &api.AggregateResponse{
		Dataset: req.Dataset,
		GroupBy: req.GroupBy,
		Value:   req.Value,
		Total:   total,
		Groups:  groups.Len(),
		Rows:    rows,
	}, nil
}

// Aggregate runs an ad-hoc aggregation over a registered dataset. A zero
// Top falls back to the configured top_n.
func (s *ExplorerService) Aggregate(ctx context.Context, req api.AggregateRequest) (resp *api.AggregateResponse, err error) {
	ctx, done := s.view(ctx, "aggregate",
		attribute.String("dataset", req.Dataset),
		attribute.StringSlice("group_by", req.GroupBy))
	defer func() { done(err) }()

	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if req.Top == 0 {
		req.Top = s.cfg.TopN
	}

	ds, err := s.store.Get(ctx, req.Dataset)
	if err != nil {
		return nil, err
	}
	return AggregateRecords(ds.Headers, ds.Records, req)
}

var unsafeName = regexp.MustCompile(`[^a-z0-9]+`)

// ExportName is the file or table name of an aggregation export
func ExportName(dataset string, groupBy []string) string {
	name := dataset + "_by_" + strings.Join(groupBy, "_")
	return strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// ExportTable runs an aggregation and flattens it for an exporter
func (s *ExplorerService) ExportTable(ctx context.Context, req api.ExportRequest) (exporter.Table, error) {
	if err := s.validate.Struct(req); err != nil {
		return exporter.Table{}, validationError(err)
	}
	resp, err := s.Aggregate(ctx, req.AggregateRequest)
	if err != nil {
		return exporter.Table{}, err
	}
	return exporter.FromAggregate(ExportName(req.Dataset, req.GroupBy), *resp), nil
}
