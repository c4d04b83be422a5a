package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "usdataexplorer/internal/errors"
	appmiddleware "usdataexplorer/internal/middleware"
	api "usdataexplorer/pkg/contracts/api/v1"
)

// ElectionHandler serves the president, senate and house views
type ElectionHandler struct {
	service      ExplorerServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	params       *appmiddleware.QueryParamValidator
}

// NewElectionHandler creates a new election handler
func NewElectionHandler(service ExplorerServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ElectionHandler {
	return &ElectionHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "election_handler")),
		errorHandler: errorHandler,
		params:       appmiddleware.NewQueryParamValidator(logger, errorHandler),
	}
}

// Routes returns the /api/elections routes
func (h *ElectionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/{office}", func(r chi.Router) {
		r.Get("/years", h.GetYears)
		r.Get("/trends", h.GetTrends)

		r.Route("/{year}", func(r chi.Router) {
			r.Get("/map", h.GetMap)
			r.Get("/table", h.GetTable)
			r.Get("/charts", h.GetCharts)
			r.Get("/districts", h.GetDistricts)
		})
	})
	return r
}

func (h *ElectionHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), "election view failed",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("view", op),
		slog.String("office", chi.URLParam(r, "office")),
		slog.String("error", err.Error()),
	)
	h.errorHandler.HandleError(w, r, mapServiceError(err))
}

func (h *ElectionHandler) year(w http.ResponseWriter, r *http.Request) (int, bool) {
	return h.params.ValidatePathInt(w, r, "year", chi.URLParam(r, "year"), 1, 9999)
}

// GetYears handles GET /api/elections/{office}/years
func (h *ElectionHandler) GetYears(w http.ResponseWriter, r *http.Request) {
	office := chi.URLParam(r, "office")
	h.logger.InfoContext(r.Context(), "fetching election years",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("office", office),
	)

	years, err := h.service.ElectionYears(r.Context(), office)
	if err != nil {
		h.fail(w, r, "years", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   years,
		"count":  len(years),
	})
}

// GetMap handles GET /api/elections/{office}/{year}/map
func (h *ElectionHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	year, ok := h.year(w, r)
	if !ok {
		return
	}
	view, err := h.service.ElectionMap(r.Context(), chi.URLParam(r, "office"), year)
	if err != nil {
		h.fail(w, r, "map", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// GetTable handles GET /api/elections/{office}/{year}/table?sort=&dir=
func (h *ElectionHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	year, ok := h.year(w, r)
	if !ok {
		return
	}
	q := api.ResultsTableQuery{
		Sort:      r.URL.Query().Get("sort"),
		Direction: r.URL.Query().Get("dir"),
	}
	rows, err := h.service.ResultsTable(r.Context(), chi.URLParam(r, "office"), year, q)
	if err != nil {
		h.fail(w, r, "table", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   rows,
		"count":  len(rows),
	})
}

// GetCharts handles GET /api/elections/{office}/{year}/charts?state=
func (h *ElectionHandler) GetCharts(w http.ResponseWriter, r *http.Request) {
	year, ok := h.year(w, r)
	if !ok {
		return
	}
	view, err := h.service.ElectionCharts(r.Context(), chi.URLParam(r, "office"), year, r.URL.Query().Get("state"))
	if err != nil {
		h.fail(w, r, "charts", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// GetDistricts handles GET /api/elections/{office}/{year}/districts?state=
func (h *ElectionHandler) GetDistricts(w http.ResponseWriter, r *http.Request) {
	year, ok := h.year(w, r)
	if !ok {
		return
	}
	districts, err := h.service.Districts(r.Context(), chi.URLParam(r, "office"), year, r.URL.Query().Get("state"))
	if err != nil {
		h.fail(w, r, "districts", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   districts,
		"count":  len(districts),
	})
}

// GetTrends handles GET /api/elections/{office}/trends?entity=&state=
func (h *ElectionHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := h.service.ElectionTrends(r.Context(), chi.URLParam(r, "office"), q.Get("entity"), q.Get("state"))
	if err != nil {
		h.fail(w, r, "trends", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}
