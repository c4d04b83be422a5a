package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"usdataexplorer/internal/shared/testutil"
)

func TestInitializeOTel_Prometheus(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	providers, err := InitializeOTel(DefaultOTelConfig(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.MeterProvider)
	require.NotNil(t, providers.PrometheusHTTP)

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	RecordDatasetLoad(context.Background(), metrics, "ev", 10, 2, time.Second, nil)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "dataset_rows_parsed_total")
}

func TestInitializeOTel_Twice(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	for i := 0; i < 2; i++ {
		providers, err := InitializeOTel(DefaultOTelConfig(), logger)
		require.NoError(t, err)
		require.NoError(t, providers.Shutdown(context.Background()))
	}
}

func TestInitializeOTel_Stdout(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)

	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "stdout"
	cfg.MetricExporter = "none"

	providers, err := InitializeOTel(cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.PrometheusHTTP)

	require.NoError(t, providers.Shutdown(context.Background()))
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "OpenTelemetry shutdown complete")
}

func TestInitializeOTel_UnsupportedExporters(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "jaeger"
	_, err := InitializeOTel(cfg, logger)
	assert.Error(t, err)

	cfg = DefaultOTelConfig()
	cfg.MetricExporter = "statsd"
	_, err = InitializeOTel(cfg, logger)
	assert.Error(t, err)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumValue(t *testing.T, m metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	want := attribute.NewSet(attrs...)
	var total int64
	for _, dp := range sum.DataPoints {
		if len(attrs) == 0 || dp.Attributes.Equals(&want) {
			total += dp.Value
		}
	}
	return total
}

func TestBusinessMetrics_Recording(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	RecordDatasetLoad(ctx, metrics, "border", 100, 3, 50*time.Millisecond, nil)
	RecordDatasetLoad(ctx, metrics, "border", 0, 0, time.Millisecond, errors.New("fetch failed"))
	RecordCacheLookup(ctx, metrics, "border", true)
	RecordCacheLookup(ctx, metrics, "border", false)
	RecordCacheLookup(ctx, metrics, "border", true)
	RecordAggregation(ctx, metrics, "ev.overview", 5*time.Millisecond)
	RecordExport(ctx, metrics, "xlsx", nil)
	RecordWebSocketChange(ctx, metrics, 2)
	RecordWebSocketChange(ctx, metrics, -1)

	got := collect(t, reader)
	ds := attribute.String("dataset", "border")

	assert.Equal(t, int64(100), sumValue(t, got["dataset_rows_parsed_total"], ds))
	assert.Equal(t, int64(3), sumValue(t, got["dataset_rows_dropped_total"], ds))
	assert.Equal(t, int64(1), sumValue(t, got["dataset_loads_total"], ds, attribute.String("status", "failure")))
	assert.Equal(t, int64(2), sumValue(t, got["dataset_cache_hits_total"], ds))
	assert.Equal(t, int64(1), sumValue(t, got["dataset_cache_misses_total"], ds))
	assert.Equal(t, int64(1), sumValue(t, got["exports_total"]))
	assert.Equal(t, int64(1), sumValue(t, got["websocket_connections"]))
	assert.Contains(t, got, "aggregation_duration_seconds")
}

func TestBusinessMetrics_NilSafe(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordDatasetLoad(ctx, nil, "ev", 1, 0, time.Second, nil)
		RecordCacheLookup(ctx, nil, "ev", true)
		RecordAggregation(ctx, nil, "ev.overview", time.Second)
		RecordExport(ctx, nil, "csv", nil)
		RecordWebSocketChange(ctx, nil, 1)
	})
}

func TestSpanHelpers(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "aggregate")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
	assert.Equal(t, traceID, GetTraceID(ctx))

	assert.NotPanics(t, func() {
		AddSpanEvent(ctx, "rows.grouped", attribute.Int("groups", 3))
		RecordError(ctx, errors.New("boom"))
		RecordError(ctx, nil)
		AddSpanEvent(context.Background(), "no span")
	})
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
