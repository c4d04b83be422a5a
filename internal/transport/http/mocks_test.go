package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"usdataexplorer/internal/border"
	"usdataexplorer/internal/datasets"
	"usdataexplorer/internal/election"
	apierrors "usdataexplorer/internal/errors"
	"usdataexplorer/internal/ev"
	"usdataexplorer/internal/exporter"
	"usdataexplorer/internal/services"
	"usdataexplorer/internal/shared/testutil"
	api "usdataexplorer/pkg/contracts/api/v1"
)

// MockExplorerService is a mock implementation of ExplorerServiceInterface
type MockExplorerService struct {
	mock.Mock
}

func (m *MockExplorerService) Datasets(ctx context.Context) []datasets.Status {
	args := m.Called(ctx)
	return args.Get(0).([]datasets.Status)
}

func (m *MockExplorerService) ReloadDataset(ctx context.Context, key string) (*datasets.Status, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datasets.Status), args.Error(1)
}

func (m *MockExplorerService) ElectionYears(ctx context.Context, office string) ([]int, error) {
	args := m.Called(ctx, office)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockExplorerService) ElectionMap(ctx context.Context, office string, year int) (*services.MapView, error) {
	args := m.Called(ctx, office, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.MapView), args.Error(1)
}

func (m *MockExplorerService) ResultsTable(ctx context.Context, office string, year int, q api.ResultsTableQuery) ([]election.TableRow, error) {
	args := m.Called(ctx, office, year, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]election.TableRow), args.Error(1)
}

func (m *MockExplorerService) ElectionCharts(ctx context.Context, office string, year int, state string) (*services.ChartsView, error) {
	args := m.Called(ctx, office, year, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ChartsView), args.Error(1)
}

func (m *MockExplorerService) Districts(ctx context.Context, office string, year int, state string) ([]string, error) {
	args := m.Called(ctx, office, year, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockExplorerService) ElectionTrends(ctx context.Context, office, entity, state string) (*services.TrendsView, error) {
	args := m.Called(ctx, office, entity, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TrendsView), args.Error(1)
}

func (m *MockExplorerService) EVOverview(ctx context.Context) (ev.Overview, error) {
	args := m.Called(ctx)
	return args.Get(0).(ev.Overview), args.Error(1)
}

func (m *MockExplorerService) EVGeography(ctx context.Context) (ev.Geography, error) {
	args := m.Called(ctx)
	return args.Get(0).(ev.Geography), args.Error(1)
}

func (m *MockExplorerService) EVRangeByYear(ctx context.Context) ([]ev.YearRange, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ev.YearRange), args.Error(1)
}

func (m *MockExplorerService) EVModels(ctx context.Context) ([]ev.ModelSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ev.ModelSummary), args.Error(1)
}

func (m *MockExplorerService) EVCompareModels(ctx context.Context, ids []string) ([]ev.ModelDetail, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ev.ModelDetail), args.Error(1)
}

func (m *MockExplorerService) EVTypes(ctx context.Context, f ev.Filter) (ev.TypeBreakdown, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(ev.TypeBreakdown), args.Error(1)
}

func (m *MockExplorerService) BorderOverview(ctx context.Context) (border.Overview, error) {
	args := m.Called(ctx)
	return args.Get(0).(border.Overview), args.Error(1)
}

func (m *MockExplorerService) BorderPorts(ctx context.Context) (border.PortMap, error) {
	args := m.Called(ctx)
	return args.Get(0).(border.PortMap), args.Error(1)
}

func (m *MockExplorerService) BorderMeasures(ctx context.Context, f border.Filter) (border.MeasureBreakdown, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(border.MeasureBreakdown), args.Error(1)
}

func (m *MockExplorerService) BorderTrends(ctx context.Context, f border.Filter) (border.TrendView, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(border.TrendView), args.Error(1)
}

func (m *MockExplorerService) Aggregate(ctx context.Context, req api.AggregateRequest) (*api.AggregateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.AggregateResponse), args.Error(1)
}

func (m *MockExplorerService) ExportTable(ctx context.Context, req api.ExportRequest) (exporter.Table, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(exporter.Table), args.Error(1)
}

// MockExporter is a mock implementation of ExporterInterface
type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Render(ctx context.Context, w io.Writer, format exporter.Format, t exporter.Table) error {
	args := m.Called(ctx, w, format, t)
	if body, ok := args.Get(0).(string); ok && body != "" {
		_, _ = io.WriteString(w, body)
	}
	return args.Error(1)
}

func (m *MockExporter) Export(ctx context.Context, format exporter.Format, name string, t exporter.Table) (exporter.Result, error) {
	args := m.Called(ctx, format, name, t)
	return args.Get(0).(exporter.Result), args.Error(1)
}

func newTestErrorHandler(t *testing.T) *apierrors.ErrorHandler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return apierrors.NewErrorHandler(logger, false)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
