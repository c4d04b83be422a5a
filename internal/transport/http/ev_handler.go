package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "usdataexplorer/internal/errors"
	"usdataexplorer/internal/ev"
)

// EVHandler serves the electric vehicle population views
type EVHandler struct {
	service      ExplorerServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewEVHandler creates a new EV handler
func NewEVHandler(service ExplorerServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *EVHandler {
	return &EVHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "ev_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the /api/ev routes
func (h *EVHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/overview", h.GetOverview)
	r.Get("/geography", h.GetGeography)
	r.Get("/range-by-year", h.GetRangeByYear)
	r.Get("/models", h.GetModels)
	r.Get("/models/compare", h.CompareModels)
	r.Get("/types", h.GetTypes)
	return r
}

func (h *EVHandler) respond(w http.ResponseWriter, r *http.Request, view string, data interface{}, err error) {
	if err != nil {
		h.logger.ErrorContext(r.Context(), "ev view failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("view", view),
			slog.String("error", err.Error()),
		)
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

// GetOverview handles GET /api/ev/overview
func (h *EVHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "fetching ev overview",
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	overview, err := h.service.EVOverview(r.Context())
	h.respond(w, r, "overview", overview, err)
}

// GetGeography handles GET /api/ev/geography
func (h *EVHandler) GetGeography(w http.ResponseWriter, r *http.Request) {
	geo, err := h.service.EVGeography(r.Context())
	h.respond(w, r, "geography", geo, err)
}

// GetRangeByYear handles GET /api/ev/range-by-year
func (h *EVHandler) GetRangeByYear(w http.ResponseWriter, r *http.Request) {
	ranges, err := h.service.EVRangeByYear(r.Context())
	h.respond(w, r, "range_by_year", ranges, err)
}

// GetModels handles GET /api/ev/models
func (h *EVHandler) GetModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.service.EVModels(r.Context())
	h.respond(w, r, "models", models, err)
}

// CompareModels handles GET /api/ev/models/compare?id=TESLA+MODEL+Y&id=...
func (h *EVHandler) CompareModels(w http.ResponseWriter, r *http.Request) {
	ids := r.URL.Query()["id"]
	if len(ids) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "at least one model id is required"))
		return
	}
	details, err := h.service.EVCompareModels(r.Context(), ids)
	h.respond(w, r, "compare", details, err)
}

// GetTypes handles GET /api/ev/types?type=&make=&year=&range=
func (h *EVHandler) GetTypes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ev.Filter{
		Type:  q.Get("type"),
		Make:  q.Get("make"),
		Year:  q.Get("year"),
		Range: q.Get("range"),
	}
	breakdown, err := h.service.EVTypes(r.Context(), f)
	h.respond(w, r, "types", breakdown, err)
}
