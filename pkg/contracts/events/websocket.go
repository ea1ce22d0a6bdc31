// Package events defines the websocket message contract shared by the server
// and dashboard clients.
package events

// Server to client message types
const (
	TypeConnection      = "connection"
	TypeItems           = "items"
	TypeError           = "error"
	TypeDatasetReloaded = "dataset:reloaded"
)

// Client to server message types
const (
	TypeHeartbeat = "heartbeat"
	TypeQuery     = "query"
)

// Message is the envelope of every server to client frame
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// ConnectionData is the payload of TypeConnection, sent once after upgrade
type ConnectionData struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id"`
}

// ErrorData is the payload of TypeError messages
type ErrorData struct {
	Message string `json:"message"`
}
