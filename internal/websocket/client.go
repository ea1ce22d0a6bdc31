package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"shortwatch/internal/config"
	"shortwatch/internal/infrastructure"
	"shortwatch/internal/store"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Time allowed to evaluate one query
	queryTimeout = 5 * time.Second

	defaultSendBuffer = 256
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// ClientOptions tunes a client
type ClientOptions struct {
	// QueryDebounce is the quiet period after the last query before it is
	// evaluated. Zero means config.DefaultSearchDebounce.
	QueryDebounce time.Duration
	SendBuffer    int
	TraceID       string
	Metrics       *infrastructure.DashboardMetrics
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub     *Hub
	conn    Connection
	querier ItemQuerier

	// Buffered channel of outbound messages
	send chan []byte

	// guards send against writes after the hub closed it
	mu     sync.Mutex
	closed bool

	debounced func(f func())

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time
	metrics     *infrastructure.DashboardMetrics
	logger      *slog.Logger
}

// NewClient creates a client for conn. querier may be nil, in which case
// queries are answered with an error message.
func NewClient(hub *Hub, conn Connection, querier ItemQuerier, opts ClientOptions, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if opts.QueryDebounce <= 0 {
		opts.QueryDebounce = config.DefaultSearchDebounce
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}

	id := uuid.New().String()
	logger = infrastructure.WithComponent(logger, "websocket.client").With(slog.String("client_id", id))
	if opts.TraceID != "" {
		logger = infrastructure.LoggerWithContext(infrastructure.WithTraceID(context.Background(), opts.TraceID), logger)
	}

	return &Client{
		hub:         hub,
		conn:        conn,
		querier:     querier,
		send:        make(chan []byte, opts.SendBuffer),
		debounced:   debounce.New(opts.QueryDebounce),
		id:          id,
		traceID:     opts.TraceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		metrics:     opts.Metrics,
		logger:      logger,
	}
}

// ID returns the client identifier
func (c *Client) ID() string {
	return c.id
}

func (c *Client) context() context.Context {
	ctx := context.Background()
	if c.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, c.traceID)
	}
	return ctx
}

// enqueue queues a frame without blocking. It reports false when the client
// is closed or its buffer is full.
func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close closes the send channel once
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump pumps messages from the websocket connection to the client's
// query handler
func (c *Client) ReadPump() {
	defer func() {
		c.logger.InfoContext(c.context(), "WebSocket client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)))
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.ErrorContext(c.context(), "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		c.handleMessage(bytes.TrimSpace(bytes.ReplaceAll(message, newline, space)))
	}
}

// handleMessage dispatches one inbound frame. Queries are debounced so that
// only the last query of a burst is evaluated.
func (c *Client) handleMessage(message []byte) {
	var msg clientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.DebugContext(c.context(), "Ignoring malformed client message", slog.String("error", err.Error()))
		c.sendMessage(TypeError, ErrorData{Message: "malformed message"})
		return
	}
	c.metrics.RecordWebSocketMessage(c.context(), "in", msg.Type)

	switch msg.Type {
	case TypeHeartbeat:
		c.logger.Debug("Heartbeat received")
	case TypeQuery:
		q := msg.ItemQuery
		c.debounced(func() { c.runQuery(q) })
	default:
		c.sendMessage(TypeError, ErrorData{Message: "unknown message type " + msg.Type})
	}
}

func (c *Client) runQuery(q store.ItemQuery) {
	if c.querier == nil {
		c.sendMessage(TypeError, ErrorData{Message: "queries are not available"})
		return
	}

	ctx, cancel := context.WithTimeout(c.context(), queryTimeout)
	defer cancel()

	list, err := c.querier.ListItems(ctx, q)
	if err != nil {
		c.logger.WarnContext(ctx, "Query failed", slog.String("error", err.Error()))
		c.sendMessage(TypeError, ErrorData{Message: err.Error()})
		return
	}
	c.sendMessage(TypeItems, list)
}

func (c *Client) sendMessage(msgType string, data interface{}) {
	payload, err := encode(msgType, data, c.traceID)
	if err != nil {
		c.logger.ErrorContext(c.context(), "Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", msgType))
		return
	}
	if !c.enqueue(payload) {
		c.logger.WarnContext(c.context(), "Dropping message for closed or slow client",
			slog.String("message_type", msgType))
		return
	}
	c.metrics.RecordWebSocketMessage(c.context(), "out", msgType)
}

// WritePump pumps messages from the send buffer to the websocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(c.context(), "Error writing message to WebSocket",
					slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.context(), "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}
