package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"usdataexplorer/internal/border"
	"usdataexplorer/internal/config"
	"usdataexplorer/internal/datasets"
	apperrors "usdataexplorer/internal/errors"
	"usdataexplorer/internal/ev"
	"usdataexplorer/internal/shared/testutil"
	"usdataexplorer/internal/tabular"
	api "usdataexplorer/pkg/contracts/api/v1"
	"usdataexplorer/pkg/contracts/events"
)

// MockDatasetStore is a mock implementation of DatasetStore
type MockDatasetStore struct {
	mock.Mock
}

func (m *MockDatasetStore) Get(ctx context.Context, key string) (*datasets.Dataset, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datasets.Dataset), args.Error(1)
}

func (m *MockDatasetStore) Reload(ctx context.Context, key string) (*datasets.Dataset, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datasets.Dataset), args.Error(1)
}

func (m *MockDatasetStore) Status() []datasets.Status {
	args := m.Called()
	return args.Get(0).([]datasets.Status)
}

// memStore serves the parsed fixtures
type memStore map[string]*datasets.Dataset

func newMemStore(t *testing.T) memStore {
	t.Helper()
	sources := map[string]string{
		api.DatasetPresident: testutil.PresidentCSV,
		api.DatasetSenate:    testutil.PresidentCSV,
		api.DatasetHouse:     testutil.HouseCSV,
		api.DatasetEV:        testutil.EVCSV,
		api.DatasetBorder:    testutil.BorderCSV,
	}
	store := make(memStore, len(sources))
	for key, text := range sources {
		res, err := tabular.Parse(text, tabular.Options{})
		require.NoError(t, err)
		store[key] = &datasets.Dataset{Key: key, Headers: res.Headers, Records: res.Records, Stats: res.Stats}
	}
	return store
}

func (s memStore) Get(ctx context.Context, key string) (*datasets.Dataset, error) {
	ds, ok := s[key]
	if !ok {
		return nil, datasets.ErrUnknownDataset
	}
	return ds, nil
}

func (s memStore) Reload(ctx context.Context, key string) (*datasets.Dataset, error) {
	return s.Get(ctx, key)
}

func (s memStore) Status() []datasets.Status { return nil }

func newTestService(t *testing.T, store DatasetStore, cfg config.AggregationConfig) *ExplorerService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewExplorerService(store, cfg, logger, nil)
}

// requireValidation asserts err is a VALIDATION AppError and returns it
func requireValidation(t *testing.T, err error) *apperrors.AppError {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)
	return appErr
}

func TestNewExplorerService_DefaultsThreshold(t *testing.T) {
	svc := newTestService(t, newMemStore(t), config.AggregationConfig{})
	assert.Equal(t, config.Default().Aggregation.ThresholdPercent, svc.cfg.ThresholdPercent)
}

func TestExplorerService_ElectionYears(t *testing.T) {
	svc := newTestService(t, newMemStore(t), config.AggregationConfig{})
	ctx := context.Background()

	years, err := svc.ElectionYears(ctx, "president")
	require.NoError(t, err)
	assert.Equal(t, []int{2016, 2020}, years)

	years, err = svc.ElectionYears(ctx, "HOUSE")
	require.NoError(t, err)
	assert.Equal(t, []int{2022}, years)

	_, err = svc.ElectionYears(ctx, "governor")
	assert.ErrorIs(t, err, ErrUnknownOffice)
}

func TestExplorerService_ElectionMap(t *testing.T) {
	svc := newTestService(t, newMemStore(t), config.AggregationConfig{})
	ctx := context.Background()

	tests := []struct {
		name    string
		office  string
		year    int
		wantErr error
	}{
		{name: "valid year", office: "president", year: 2020},
		{name: "year without results", office: "president", year: 2018, wantErr: ErrNoResults},
		{name: "zero year", office: "president", year: 0, wantErr: ErrInvalidYear},
		{name: "unknown office", office: "mayor", year: 2020, wantErr: ErrUnknownOffice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.ElectionMap(ctx, tt.office, tt.year)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, view)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2020, view.Year)
			assert.Equal(t, "REPUBLICAN", view.WinningParty)
			require.Contains(t, view.States, "OH")
			require.Contains(t, view.States, "VT")
			require.NotNil(t, view.States["VT"].Winner)
			assert.Equal(t, "BIDEN, JOSEPH R. JR", view.States["VT"].Winner.Name)
			assert.Equal(t, 5922202, view.States["OH"].TotalVotes)
		})
	}
}

func TestExplorerService_ResultsTable(t *testing.T) {
	svc := newTestService(t, newMemStore(t), config.AggregationConfig{})
	ctx := context.Background()

	rows, err := svc.ResultsTable(ctx, "president", 2020, api.ResultsTableQuery{Sort: "totalVotes", Direction: "desc"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 5922202, rows[0].TotalVotes)

	_, err = svc.ResultsTable(ctx, "president", 2020, api.ResultsTableQuery{Sort: "margin"})
	appErr := requireValidation(t, err)
	fields, ok := appErr.Context["fields"].([]apperrors.ValidationError)
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "sort", fields[0].Field)
	assert.Contains(t, fields[0].Message, "must be one of")
}

func TestExplorerService_ElectionCharts(t *testing.T) {
	svc := newTestService(t, newMemStore(t), config.AggregationConfig{})
	ctx := context.Background()

	view, err := svc.ElectionCharts(ctx, "president", 2020, "")
	require.NoError(t, err)
	assert.Len(t, view.Rows, 2)
	assert.Len(t, view.Turnout, 2)

	view, err = svc.ElectionCharts(ctx, "president", 2020, "vt")
	require.NoError(t, err)
	assert.Equal(t, "VT", view.State)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, 367428, view.Rows[0].TotalVotes)

	_, err = svc.ElectionCharts(ctx, "president", 2020, "TX")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestExplorerService_Districts(t *testing.T) {
	svc := newTestService(t, newMemStore(t), config.AggregationConfig{})
	ctx := context.Background()

	districts, err := svc.Districts(ctx, "house", 2022, "OH")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "10"}, districts)

	_, err = svc.Districts(ctx, "president", 2020, "OH")
	requireValidation(t, err)

	_, err = svc.Districts(ctx, "house", 2022, " ")
	requireValidation(t, err)

	_, err = svc.Districts(ctx, "house", 2020, "OH")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestExplorerService_ElectionTrends(t *testing.T) {
	svc := newTestService(t, newMemStore(t), config.AggregationConfig{})
	ctx := context.Background()

	view, err := svc.ElectionTrends(ctx, "president", "", "")
	require.NoError(t, err)
	assert.Equal(t, NationalEntity, view.Entity)
	assert.Equal(t, []int{2016, 2020}, view.Years)
	assert.Len(t, view.Series, 2)
	assert.Len(t, view.Turnout, 2)

	view, err = svc.ElectionTrends(ctx, "president", "oh", "")
	require.NoError(t, err)
	assert.Equal(t, "OH", view.Entity)
	require.Len(t, view.Series, 2)
	assert.Equal(t, 2016, view.Series[0].Year)

	_, err = svc.ElectionTrends(ctx, "president", "TX", "")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestExplorerService_EVViews(t *testing.T) {
	svc := newTestService(t, newMemStore(t), config.AggregationConfig{})
	ctx := context.Background()

	overview, err := svc.EVOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, overview.TotalVehicles)
	require.NotEmpty(t, overview.ByMake)
	assert.Equal(t, "TESLA", overview.ByMake[0].Label)

	models, err := svc.EVModels(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, models)

	details, err := svc.EVCompareModels(ctx, []string{"TESLA MODEL Y", "NISSAN LEAF"})
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, 2, details[0].Count)

	_, err = svc.EVCompareModels(ctx, []string{"TESLA MODEL Y", "DELOREAN DMC"})
	assert.ErrorIs(t, err, ErrUnknownModel)

	types, err := svc.EVTypes(ctx, ev.Filter{Make: "TESLA"})
	require.NoError(t, err)
	assert.Equal(t, 3, types.TotalVehicles)

	_, err = svc.EVTypes(ctx, ev.Filter{Range: "Over 9000 miles"})
	requireValidation(t, err)
}

func TestExplorerService_BorderViews(t *testing.T) {
	svc := newTestService(t, newMemStore(t), config.AggregationConfig{})
	ctx := context.Background()

	overview, err := svc.BorderOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(1830000), overview.TotalCrossings)

	ports, err := svc.BorderPorts(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, ports.ByPort)

	measures, err := svc.BorderMeasures(ctx, border.Filter{Year: "2023"})
	require.NoError(t, err)
	assert.Equal(t, float64(1280000), measures.Total)
	require.NotEmpty(t, measures.Measures)
	assert.Equal(t, "Pedestrians", measures.Measures[0].Measure)

	_, err = svc.BorderMeasures(ctx, border.Filter{Year: "last year"})
	requireValidation(t, err)

	trends, err := svc.BorderTrends(ctx, border.Filter{Port: "Detroit", Measure: "Personal Vehicles"})
	require.NoError(t, err)
	assert.Len(t, trends.Points, 2)
	assert.NotNil(t, trends.Insights)
}

func TestExplorerService_Aggregate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		cfg      config.AggregationConfig
		req      api.AggregateRequest
		wantKeys []string
		wantErr  error
		invalid  bool
	}{
		{
			name:     "count by make",
			req:      api.AggregateRequest{Dataset: "ev", GroupBy: []string{"Make"}},
			wantKeys: []string{"TESLA", "NISSAN", "FORD"},
		},
		{
			name:     "configured top n",
			cfg:      config.AggregationConfig{TopN: 1},
			req:      api.AggregateRequest{Dataset: "ev", GroupBy: []string{"Make"}},
			wantKeys: []string{"TESLA"},
		},
		{
			name:     "threshold",
			req:      api.AggregateRequest{Dataset: "ev", GroupBy: []string{"Make"}, Threshold: 25},
			wantKeys: []string{"TESLA"},
		},
		{
			name:     "summed value",
			req:      api.AggregateRequest{Dataset: "border", GroupBy: []string{"Border"}, Value: "Value"},
			wantKeys: []string{"US-Mexico Border", "US-Canada Border"},
		},
		{
			name:    "unknown column",
			req:     api.AggregateRequest{Dataset: "ev", GroupBy: []string{"Colour"}},
			wantErr: ErrUnknownColumn,
		},
		{
			name:    "missing group",
			req:     api.AggregateRequest{Dataset: "ev"},
			invalid: true,
		},
		{
			name:    "unknown dataset",
			req:     api.AggregateRequest{Dataset: "weather", GroupBy: []string{"Make"}},
			invalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, newMemStore(t), tt.cfg)
			resp, err := svc.Aggregate(ctx, tt.req)
			switch {
			case tt.invalid:
				requireValidation(t, err)
				return
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			keys := make([]string, 0, len(resp.Rows))
			for _, row := range resp.Rows {
				keys = append(keys, row.Key)
			}
			assert.Equal(t, tt.wantKeys, keys)
		})
	}
}

func TestAggregateRecords_Categories(t *testing.T) {
	res, err := tabular.Parse(testutil.EVCSV, tabular.Options{})
	require.NoError(t, err)

	resp, err := AggregateRecords(res.Headers, res.Records, api.AggregateRequest{
		Dataset:  "ev",
		GroupBy:  []string{"Make"},
		Category: "Electric Vehicle Type",
	})
	require.NoError(t, err)

	assert.Equal(t, float64(5), resp.Total)
	assert.Equal(t, 3, resp.Groups)
	require.Len(t, resp.Rows, 3)

	tesla := resp.Rows[0]
	assert.Equal(t, "TESLA", tesla.Key)
	assert.Equal(t, "60.0", tesla.Percent)
	assert.Equal(t, 3, tesla.Rows)
	assert.Equal(t, map[string]float64{"Battery Electric Vehicle (BEV)": 3}, tesla.Categories)
	assert.Equal(t, "100.0", tesla.Shares["Battery Electric Vehicle (BEV)"])
}

func TestExportName(t *testing.T) {
	tests := []struct {
		dataset string
		groupBy []string
		want    string
	}{
		{"ev", []string{"Make"}, "ev_by_make"},
		{"ev", []string{"County", "City"}, "ev_by_county_city"},
		{"border", []string{"Port Name"}, "border_by_port_name"},
		{"ev", []string{"Clean Alternative Fuel Vehicle (CAFV) Eligibility"}, "ev_by_clean_alternative_fuel_vehicle_cafv_eligibility"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ExportName(tt.dataset, tt.groupBy))
		})
	}
}

func TestExplorerService_ExportTable(t *testing.T) {
	svc := newTestService(t, newMemStore(t), config.AggregationConfig{})
	ctx := context.Background()

	table, err := svc.ExportTable(ctx, api.ExportRequest{
		AggregateRequest: api.AggregateRequest{Dataset: "ev", GroupBy: []string{"Make"}},
		Format:           "csv",
	})
	require.NoError(t, err)
	assert.Equal(t, "ev_by_make", table.Name)
	assert.Equal(t, "Make", table.Headers[0])
	assert.Len(t, table.Rows, 3)

	_, err = svc.ExportTable(ctx, api.ExportRequest{
		AggregateRequest: api.AggregateRequest{Dataset: "ev", GroupBy: []string{"Make"}},
		Format:           "pdf",
	})
	requireValidation(t, err)
}

func TestExplorerService_StoreErrors(t *testing.T) {
	loadErr := apperrors.NewStorageError("read dataset", errors.New("disk gone"))

	store := new(MockDatasetStore)
	store.On("Get", mock.Anything, api.DatasetEV).Return(nil, loadErr)
	store.On("Get", mock.Anything, api.DatasetPresident).Return(nil, loadErr)

	svc := newTestService(t, store, config.AggregationConfig{})
	ctx := context.Background()

	_, err := svc.EVOverview(ctx)
	assert.ErrorIs(t, err, loadErr)

	_, err = svc.ElectionMap(ctx, "president", 2020)
	assert.ErrorIs(t, err, loadErr)

	_, err = svc.Aggregate(ctx, api.AggregateRequest{Dataset: "ev", GroupBy: []string{"Make"}})
	assert.ErrorIs(t, err, loadErr)

	store.AssertExpectations(t)
}

func TestExplorerService_ReloadDataset(t *testing.T) {
	ctx := context.Background()
	ready := datasets.Status{
		Descriptor: datasets.Descriptor{Key: "ev"},
		State:      events.DatasetReady,
		Rows:       5,
	}

	t.Run("reloaded", func(t *testing.T) {
		store := new(MockDatasetStore)
		store.On("Reload", mock.Anything, "ev").Return(&datasets.Dataset{Key: "ev"}, nil)
		store.On("Status").Return([]datasets.Status{ready})

		svc := newTestService(t, store, config.AggregationConfig{})
		st, err := svc.ReloadDataset(ctx, "ev")
		require.NoError(t, err)
		assert.Equal(t, 5, st.Rows)
		assert.Equal(t, events.DatasetReady, st.State)
		store.AssertExpectations(t)
	})

	t.Run("reload fails", func(t *testing.T) {
		store := new(MockDatasetStore)
		store.On("Reload", mock.Anything, "ev").Return(nil, errors.New("parse failed"))

		logger, handler := testutil.NewTestLogger(t)
		svc := NewExplorerService(store, config.AggregationConfig{}, logger, nil)
		_, err := svc.ReloadDataset(ctx, "ev")
		assert.EqualError(t, err, "parse failed")
		testutil.AssertLogContains(t, handler, slog.LevelError, "Dataset reload failed")
		store.AssertNotCalled(t, "Status")
	})

	t.Run("unknown dataset", func(t *testing.T) {
		store := new(MockDatasetStore)
		store.On("Reload", mock.Anything, "weather").Return(&datasets.Dataset{}, nil)
		store.On("Status").Return([]datasets.Status{ready})

		svc := newTestService(t, store, config.AggregationConfig{})
		_, err := svc.ReloadDataset(ctx, "weather")
		assert.ErrorIs(t, err, ErrUnknownDataset)
	})
}

func TestExplorerService_Datasets(t *testing.T) {
	store := new(MockDatasetStore)
	store.On("Status").Return([]datasets.Status{{Descriptor: datasets.Descriptor{Key: "ev"}}})

	svc := newTestService(t, store, config.AggregationConfig{})
	statuses := svc.Datasets(context.Background())
	require.Len(t, statuses, 1)
	assert.Equal(t, "ev", statuses[0].Key)
}
