package websocket

import (
	"context"
	"time"

	"shortwatch/internal/services"
	"shortwatch/internal/store"
)

// Connection defines the interface for WebSocket connections
// This allows for proper mocking in tests
type Connection interface {
	// WriteMessage writes a message with the given message type and payload
	WriteMessage(messageType int, data []byte) error

	// ReadMessage reads a message from the connection
	ReadMessage() (messageType int, p []byte, err error)

	// Close closes the connection
	Close() error

	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)

	// RemoteAddr returns the remote network address
	RemoteAddr() string
}

// ItemQuerier answers table queries sent by clients
type ItemQuerier interface {
	ListItems(ctx context.Context, q store.ItemQuery) (*services.ItemList, error)
}
