package http

import (
	"context"
	"io"

	"usdataexplorer/internal/border"
	"usdataexplorer/internal/datasets"
	"usdataexplorer/internal/election"
	"usdataexplorer/internal/ev"
	"usdataexplorer/internal/exporter"
	"usdataexplorer/internal/services"
	api "usdataexplorer/pkg/contracts/api/v1"
)

// ExplorerServiceInterface defines the view and aggregation operations the
// handlers serve
type ExplorerServiceInterface interface {
	Datasets(ctx context.Context) []datasets.Status
	ReloadDataset(ctx context.Context, key string) (*datasets.Status, error)

	ElectionYears(ctx context.Context, office string) ([]int, error)
	ElectionMap(ctx context.Context, office string, year int) (*services.MapView, error)
	ResultsTable(ctx context.Context, office string, year int, q api.ResultsTableQuery) ([]election.TableRow, error)
	ElectionCharts(ctx context.Context, office string, year int, state string) (*services.ChartsView, error)
	Districts(ctx context.Context, office string, year int, state string) ([]string, error)
	ElectionTrends(ctx context.Context, office, entity, state string) (*services.TrendsView, error)

	EVOverview(ctx context.Context) (ev.Overview, error)
	EVGeography(ctx context.Context) (ev.Geography, error)
	EVRangeByYear(ctx context.Context) ([]ev.YearRange, error)
	EVModels(ctx context.Context) ([]ev.ModelSummary, error)
	EVCompareModels(ctx context.Context, ids []string) ([]ev.ModelDetail, error)
	EVTypes(ctx context.Context, f ev.Filter) (ev.TypeBreakdown, error)

	BorderOverview(ctx context.Context) (border.Overview, error)
	BorderPorts(ctx context.Context) (border.PortMap, error)
	BorderMeasures(ctx context.Context, f border.Filter) (border.MeasureBreakdown, error)
	BorderTrends(ctx context.Context, f border.Filter) (border.TrendView, error)

	Aggregate(ctx context.Context, req api.AggregateRequest) (*api.AggregateResponse, error)
	ExportTable(ctx context.Context, req api.ExportRequest) (exporter.Table, error)
}

// ExporterInterface renders export tables to clients, files and databases
type ExporterInterface interface {
	Render(ctx context.Context, w io.Writer, format exporter.Format, t exporter.Table) error
	Export(ctx context.Context, format exporter.Format, name string, t exporter.Table) (exporter.Result, error)
}

// HealthServiceInterface defines the health endpoints' data source
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
