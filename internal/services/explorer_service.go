package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"usdataexplorer/internal/border"
	"usdataexplorer/internal/config"
	"usdataexplorer/internal/datasets"
	"usdataexplorer/internal/ev"
	"usdataexplorer/internal/infrastructure"
	"usdataexplorer/internal/tabular"
	api "usdataexplorer/pkg/contracts/api/v1"
)

// DatasetStore is the part of datasets.Cache the explorer needs
type DatasetStore interface {
	Get(ctx context.Context, key string) (*datasets.Dataset, error)
	Reload(ctx context.Context, key string) (*datasets.Dataset, error)
	Status() []datasets.Status
}

// ExplorerService derives every view served by the API from cached datasets
type ExplorerService struct {
	store    DatasetStore
	cfg      config.AggregationConfig
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *infrastructure.BusinessMetrics
	tracer   trace.Tracer
}

// NewExplorerService creates the service. metrics may be nil.
func NewExplorerService(store DatasetStore, cfg config.AggregationConfig, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *ExplorerService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if cfg.ThresholdPercent <= 0 {
		cfg.ThresholdPercent = config.Default().Aggregation.ThresholdPercent
	}

	logger.Info("ExplorerService initialized",
		slog.Float64("threshold_percent", cfg.ThresholdPercent),
		slog.Int("top_n", cfg.TopN))

	return &ExplorerService{
		store:    store,
		cfg:      cfg,
		validate: NewValidator(),
		logger:   logger.With(slog.String("service", "explorer")),
		metrics:  metrics,
		tracer:   otel.Tracer(infrastructure.InstrumentationName),
	}
}

// view wraps one derivation in a span and records its duration. Call the
// returned func with the final error.
func (s *ExplorerService) view(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "services."+name, trace.WithAttributes(attrs...))
	start := time.Now()
	return ctx, func(err error) {
		defer span.End()
		if err != nil {
			infrastructure.RecordError(ctx, err)
			return
		}
		elapsed := time.Since(start)
		infrastructure.RecordAggregation(ctx, s.metrics, name, elapsed)
		infrastructure.LoggerWithContext(ctx).DebugContext(ctx, "View built",
			slog.String("view", name),
			slog.Duration("duration", elapsed))
	}
}

// records loads the parsed records of a dataset
func (s *ExplorerService) records(ctx context.Context, key string) ([]tabular.Record, error) {
	ds, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return ds.Records, nil
}

// buildView runs build over the records of one dataset
func buildView[T any](ctx context.Context, s *ExplorerService, name, key string, build func([]tabular.Record) T) (T, error) {
	ctx, done := s.view(ctx, name, attribute.String("dataset", key))

	var out T
	records, err := s.records(ctx, key)
	if err != nil {
		done(err)
		return out, err
	}
	out = build(records)
	done(nil)
	return out, nil
}

// Datasets reports the registry and load state of every dataset
func (s *ExplorerService) Datasets(ctx context.Context) []datasets.Status {
	return s.store.Status()
}

// ReloadDataset evicts a dataset and loads it again
func (s *ExplorerService) ReloadDataset(ctx context.Context, key string) (*datasets.Status, error) {
	if _, err := s.store.Reload(ctx, key); err != nil {
		s.logger.ErrorContext(ctx, "Dataset reload failed",
			slog.String("dataset", key),
			slog.String("error", err.Error()))
		return nil, err
	}

	for _, st := range s.store.Status() {
		if st.Key == key {
			s.logger.InfoContext(ctx, "Dataset reloaded",
				slog.String("dataset", key),
				slog.Int("rows", st.Rows))
			return &st, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, key)
}

// EVOverview counts vehicles by make, type, model year and county
func (s *ExplorerService) EVOverview(ctx context.Context) (ev.Overview, error) {
	return buildView(ctx, s, "ev.overview", api.DatasetEV, ev.BuildOverview)
}

// EVGeography counts vehicles by county and city with coordinates
func (s *ExplorerService) EVGeography(ctx context.Context) (ev.Geography, error) {
	return buildView(ctx, s, "ev.geography", api.DatasetEV, ev.BuildGeography)
}

// EVRangeByYear reports average electric range per model year
func (s *ExplorerService) EVRangeByYear(ctx context.Context) ([]ev.YearRange, error) {
	return buildView(ctx, s, "ev.range_by_year", api.DatasetEV, ev.RangeByYear)
}

// EVModels lists the model catalog
func (s *ExplorerService) EVModels(ctx context.Context) ([]ev.ModelSummary, error) {
	return buildView(ctx, s, "ev.models", api.DatasetEV, ev.ModelCatalog)
}

// EVCompareModels details each "Make Model" id. An id with no vehicles is an
// ErrUnknownModel.
func (s *ExplorerService) EVCompareModels(ctx context.Context, ids []string) ([]ev.ModelDetail, error) {
	details, err := buildView(ctx, s, "ev.compare", api.DatasetEV, func(records []tabular.Record) []ev.ModelDetail {
		return ev.CompareModels(records, ids)
	})
	if err != nil {
		return nil, err
	}
	for _, d := range details {
		if d.Count == 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownModel, d.ID)
		}
	}
	return details, nil
}

// EVTypes is the filtered fleet breakdown
func (s *ExplorerService) EVTypes(ctx context.Context, f ev.Filter) (ev.TypeBreakdown, error) {
	if err := s.validate.Struct(f); err != nil {
		return ev.TypeBreakdown{}, validationError(err)
	}
	return buildView(ctx, s, "ev.types", api.DatasetEV, func(records []tabular.Record) ev.TypeBreakdown {
		return ev.BuildTypeBreakdown(records, f)
	})
}

// BorderOverview sums crossings by measure, border and state
func (s *ExplorerService) BorderOverview(ctx context.Context) (border.Overview, error) {
	return buildView(ctx, s, "border.overview", api.DatasetBorder, border.BuildOverview)
}

// BorderPorts totals crossings per port
func (s *ExplorerService) BorderPorts(ctx context.Context) (border.PortMap, error) {
	return buildView(ctx, s, "border.ports", api.DatasetBorder, border.Ports)
}

// BorderMeasures breaks the filtered crossings down by measure
func (s *ExplorerService) BorderMeasures(ctx context.Context, f border.Filter) (border.MeasureBreakdown, error) {
	if err := s.validate.Struct(f); err != nil {
		return border.MeasureBreakdown{}, validationError(err)
	}
	return buildView(ctx, s, "border.measures", api.DatasetBorder, func(records []tabular.Record) border.MeasureBreakdown {
		return border.MeasureAnalysis(records, f)
	})
}

// BorderTrends is the monthly crossing series with insights
func (s *ExplorerService) BorderTrends(ctx context.Context, f border.Filter) (border.TrendView, error) {
	return buildView(ctx, s, "border.trends", api.DatasetBorder, func(records []tabular.Record) border.TrendView {
		return border.Trends(records, f)
	})
}
