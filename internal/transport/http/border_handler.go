package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"usdataexplorer/internal/border"
	apierrors "usdataexplorer/internal/errors"
)

// BorderHandler serves the border crossing views
type BorderHandler struct {
	service      ExplorerServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewBorderHandler creates a new border handler
func NewBorderHandler(service ExplorerServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *BorderHandler {
	return &BorderHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "border_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the /api/border routes
func (h *BorderHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/overview", h.GetOverview)
	r.Get("/ports", h.GetPorts)
	r.Get("/measures", h.GetMeasures)
	r.Get("/trends", h.GetTrends)
	return r
}

func borderFilter(r *http.Request) border.Filter {
	q := r.URL.Query()
	return border.Filter{
		Border:  q.Get("border"),
		Year:    q.Get("year"),
		State:   q.Get("state"),
		Measure: q.Get("measure"),
		Port:    q.Get("port"),
	}
}

func (h *BorderHandler) respond(w http.ResponseWriter, r *http.Request, view string, data interface{}, err error) {
	if err != nil {
		h.logger.ErrorContext(r.Context(), "border view failed",
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

// GetOverview handles GET /api/border/overview
func (h *BorderHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "fetching border overview",
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	overview, err := h.service.BorderOverview(r.Context())
	h.respond(w, r, "overview", overview, err)
}

// GetPorts handles GET /api/border/ports
func (h *BorderHandler) GetPorts(w http.ResponseWriter, r *http.Request) {
	ports, err := h.service.BorderPorts(r.Context())
	h.respond(w, r, "ports", ports, err)
}

// GetMeasures handles GET /api/border/measures?border=&year=&state=
func (h *BorderHandler) GetMeasures(w http.ResponseWriter, r *http.Request) {
	measures, err := h.service.BorderMeasures(r.Context(), borderFilter(r))
	h.respond(w, r, "measures", measures, err)
}

// GetTrends handles GET /api/border/trends?port=&measure=
func (h *BorderHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := h.service.BorderTrends(r.Context(), borderFilter(r))
	h.respond(w, r, "trends", trends, err)
}
