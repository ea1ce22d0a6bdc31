package websocket

import (
	"encoding/json"
	"time"

	"shortwatch/internal/store"
	"shortwatch/pkg/contracts/events"
)

// Message types
const (
	TypeConnection = events.TypeConnection
	TypeHeartbeat  = events.TypeHeartbeat
	TypeQuery      = events.TypeQuery
	TypeItems      = events.TypeItems
	TypeError      = events.TypeError
)

type (
	// Message is the envelope of every server to client frame
	Message = events.Message
	// ErrorData is the payload of TypeError messages
	ErrorData = events.ErrorData
)

// clientMessage is a frame sent by the browser. Query fields sit next to
// the type: {"type":"query","alert":"red","sort":"priceYoY",...}
type clientMessage struct {
	Type string `json:"type"`
	store.ItemQuery
}

func encode(msgType string, data interface{}, traceID string) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
		TraceID:   traceID,
	})
}
