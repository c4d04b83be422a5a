package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"usdataexplorer/internal/infrastructure"
	"usdataexplorer/internal/shared/testutil"
)

func newTestOTel(t *testing.T) (*OTelMiddleware, *tracetest.InMemoryExporter, *sdkmetric.ManualReader) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	metrics, err := infrastructure.CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	m, err := NewOTelMiddleware(&infrastructure.OTelProviders{
		Tracer: tp.Tracer("test"),
		Logger: logger,
	}, metrics)
	require.NoError(t, err)
	return m, exporter, reader
}

func TestNewOTelMiddleware_RequiresProviders(t *testing.T) {
	_, err := NewOTelMiddleware(nil, nil)
	assert.Error(t, err)

	_, err = NewOTelMiddleware(&infrastructure.OTelProviders{Tracer: sdktrace.NewTracerProvider().Tracer("x")}, nil)
	assert.Error(t, err)
}

func TestOTelMiddleware_Handler(t *testing.T) {
	m, exporter, reader := newTestOTel(t)

	var traceID string
	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/api/elections/{office}/years", func(w http.ResponseWriter, r *http.Request) {
		traceID = infrastructure.GetTraceID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/api/fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/elections/president/years", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/fail", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET /api/elections/{office}/years", spans[0].Name)
	assert.Equal(t, spans[0].SpanContext.TraceID().String(), traceID)
	assert.Equal(t, "Error", spans[1].Status.Code.String())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var requests metricdata.Sum[int64]
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if metric.Name == "http_requests_total" {
				requests = metric.Data.(metricdata.Sum[int64])
			}
		}
	}
	require.Len(t, requests.DataPoints, 2)

	want := attribute.NewSet(
		attribute.String("method", http.MethodGet),
		attribute.String("route", "/api/elections/{office}/years"),
		attribute.Int("status_code", http.StatusOK),
	)
	found := false
	for _, dp := range requests.DataPoints {
		if dp.Attributes.Equals(&want) {
			found = true
			assert.Equal(t, int64(1), dp.Value)
		}
	}
	assert.True(t, found, "request counter labelled with the route pattern")
}

func TestWebSocketTraceMiddleware(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)

	var hasSpan bool
	h := WebSocketTraceMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasSpan = r.Context() != nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, hasSpan)
	assert.True(t, handler.ContainsAttr("origin", "http://localhost:8080"))
}
