package websocket

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"shortwatch/internal/config"
	"shortwatch/internal/infrastructure"
)

// ConnectionWrapper adapts *websocket.Conn to Connection
type ConnectionWrapper struct {
	*websocket.Conn
}

// NewConnectionWrapper wraps conn
func NewConnectionWrapper(conn *websocket.Conn) Connection {
	return &ConnectionWrapper{Conn: conn}
}

// RemoteAddr returns the peer address as a string
func (c *ConnectionWrapper) RemoteAddr() string {
	return c.Conn.RemoteAddr().String()
}

// Handler upgrades HTTP requests and attaches the connection to the hub
type Handler struct {
	hub      *Hub
	querier  ItemQuerier
	upgrader websocket.Upgrader
	opts     ClientOptions
	logger   *slog.Logger
}

// NewHandler creates the /ws endpoint. Requests without an Origin header are
// accepted; otherwise the origin must be in allowedOrigins, unless the list
// contains "*".
func NewHandler(hub *Hub, querier ItemQuerier, cfg config.WebSocketConfig, allowedOrigins []string, opts ClientOptions, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = infrastructure.WithComponent(logger, "websocket.handler")

	h := &Handler{
		hub:     hub,
		querier: querier,
		opts:    opts,
		logger:  logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin) {
				return true
			}
			logger.WarnContext(r.Context(), "WebSocket origin not allowed",
				slog.String("origin", origin),
				slog.Any("allowed_origins", allowedOrigins))
			return false
		},
	}
	if h.opts.SendBuffer <= 0 {
		h.opts.SendBuffer = cfg.SendBuffer
	}
	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traceID := infrastructure.GetTraceID(ctx)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(ctx, "WebSocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("origin", r.Header.Get("Origin")))
		return
	}

	opts := h.opts
	opts.TraceID = traceID
	client := NewClient(h.hub, NewConnectionWrapper(conn), h.querier, opts, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
