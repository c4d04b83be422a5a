package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "usdataexplorer/internal/errors"
	"usdataexplorer/internal/exporter"
	appmiddleware "usdataexplorer/internal/middleware"
	"usdataexplorer/internal/services"
	api "usdataexplorer/pkg/contracts/api/v1"
)

var downloadFormats = []string{string(exporter.FormatCSV), string(exporter.FormatXLSX), string(exporter.FormatJSON)}

// AggregateHandler serves ad-hoc aggregations and their exports
type AggregateHandler struct {
	service      ExplorerServiceInterface
	exporter     ExporterInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	params       *appmiddleware.QueryParamValidator
}

// NewAggregateHandler creates a new aggregate handler
func NewAggregateHandler(service ExplorerServiceInterface, exp ExporterInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AggregateHandler {
	return &AggregateHandler{
		service:      service,
		exporter:     exp,
		logger:       logger.With(slog.String("component", "aggregate_handler")),
		errorHandler: errorHandler,
		params:       appmiddleware.NewQueryParamValidator(logger, errorHandler),
	}
}

// Aggregate handles POST /api/aggregate
func (h *AggregateHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req api.AggregateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "running aggregation",
		slog.String("request_id", reqID),
		slog.String("dataset", req.Dataset),
		slog.Any("group_by", req.GroupBy),
	)

	resp, err := h.service.Aggregate(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "aggregation failed",
			slog.String("request_id", reqID),
			slog.String("error", err.Error()),
		)
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   resp,
		"count":  len(resp.Rows),
	})
}

// Download handles GET /api/export/{dataset}. The table is rendered in full
// before anything is written so a failed export still gets a problem response.
func (h *AggregateHandler) Download(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	top, ok := h.params.ValidateInt(w, r, "top", 0, 1000, 0)
	if !ok {
		return
	}
	threshold, ok := h.params.ValidateFloat(w, r, "threshold", 0, 100)
	if !ok {
		return
	}
	formatName, ok := h.params.ValidateEnum(w, r, "format", downloadFormats, string(exporter.FormatCSV))
	if !ok {
		return
	}
	format := exporter.Format(formatName)

	req := api.ExportRequest{
		AggregateRequest: api.AggregateRequest{
			Dataset:   chi.URLParam(r, "dataset"),
			GroupBy:   splitList(q.Get("group")),
			Value:     q.Get("value"),
			Category:  q.Get("category"),
			Top:       top,
			Threshold: threshold,
		},
		Format: formatName,
	}

	table, err := h.service.ExportTable(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.Render(r.Context(), &buf, format, table); err != nil {
		h.logger.ErrorContext(r.Context(), "export render failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("format", formatName),
			slog.String("error", err.Error()),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filename := services.ExportName(req.Dataset, req.GroupBy) + format.Extension()
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Export handles POST /api/export. File formats land in the export
// directory; sqlite and postgres write a table to the configured database.
func (h *AggregateHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req api.ExportRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	table, err := h.service.ExportTable(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}

	res, err := h.exporter.Export(r.Context(), format, table.Name, table)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "export completed",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("format", string(res.Format)),
		slog.String("location", res.Location),
		slog.Int("rows", res.Rows),
	)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   res,
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
