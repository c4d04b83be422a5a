package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "usdataexplorer/internal/errors"
)

// DatasetsHandler serves dataset status and reloads
type DatasetsHandler struct {
	service      ExplorerServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetsHandler creates a new datasets handler
func NewDatasetsHandler(service ExplorerServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetsHandler {
	return &DatasetsHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "datasets_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the /api/datasets routes
func (h *DatasetsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.ListDatasets)
	r.Post("/{key}/reload", h.ReloadDataset)
	return r
}

// ListDatasets handles GET /api/datasets
func (h *DatasetsHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	statuses := h.service.Datasets(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   statuses,
		"count":  len(statuses),
	})
}

// ReloadDataset handles POST /api/datasets/{key}/reload
func (h *DatasetsHandler) ReloadDataset(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "reloading dataset",
		slog.String("request_id", reqID),
		slog.String("dataset", key),
	)

	status, err := h.service.ReloadDataset(r.Context(), key)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "dataset reload failed",
			slog.String("request_id", reqID),
			slog.String("dataset", key),
			slog.String("error", err.Error()),
		)
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   status,
	})
}
