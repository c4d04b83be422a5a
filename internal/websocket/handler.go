package websocket

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"usdataexplorer/internal/config"
	"usdataexplorer/internal/infrastructure"
)

// Handler upgrades requests to websocket connections registered with a hub
type Handler struct {
	hub            *Hub
	upgrader       websocket.Upgrader
	timing         Timing
	allowedOrigins []string
	logger         *slog.Logger
}

// NewHandler creates the /ws handler. An empty allowedOrigins list, or one
// containing "*", accepts any origin.
func NewHandler(hub *Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	h := &Handler{
		hub:            hub,
		timing:         TimingFrom(cfg),
		allowedOrigins: allowedOrigins,
		logger:         logger.With(slog.String("component", "websocket.handler")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  orDefault(cfg.ReadBufferSize, 1024),
		WriteBufferSize: orDefault(cfg.WriteBufferSize, 1024),
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 || slices.Contains(h.allowedOrigins, "*") {
		return true
	}
	if slices.Contains(h.allowedOrigins, origin) {
		return true
	}
	h.logger.WarnContext(r.Context(), "WebSocket origin check - origin not allowed",
		slog.String("origin", origin),
		slog.Any("allowed_origins", h.allowedOrigins))
	return false
}

// ServeHTTP upgrades the connection and starts the client pumps
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetReqID(r.Context())
	if traceID == "" {
		traceID = infrastructure.GenerateTraceID()
	}
	ctx := infrastructure.WithTraceID(r.Context(), traceID)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error response.
		h.logger.ErrorContext(ctx, "WebSocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("origin", r.Header.Get("Origin")))
		return
	}

	client := NewClient(h.hub, gorillaConn{conn}, traceID, h.timing, h.logger)
	h.hub.Register(client)

	h.logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("client_id", client.id))

	go client.WritePump()
	go client.ReadPump()
}
