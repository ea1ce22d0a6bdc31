package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// mockConnection is an in-memory Connection. ReadMessage blocks until a
// frame is pushed or the connection is closed.
type mockConnection struct {
	mu      sync.Mutex
	written []mockFrame
	closed  bool

	reads     chan []byte
	closeOnce sync.Once
}

type mockFrame struct {
	Type int
	Data []byte
}

func newMockConnection() *mockConnection {
	return &mockConnection{reads: make(chan []byte, 16)}
}

func (m *mockConnection) push(data string) {
	m.reads <- []byte(data)
}

func (m *mockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("connection closed")
	}
	m.written = append(m.written, mockFrame{Type: messageType, Data: data})
	return nil
}

func (m *mockConnection) ReadMessage() (int, []byte, error) {
	data, ok := <-m.reads
	if !ok {
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
	return websocket.TextMessage, data, nil
}

func (m *mockConnection) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.closeOnce.Do(func() { close(m.reads) })
	return nil
}

func (m *mockConnection) SetReadDeadline(time.Time) error  { return nil }
func (m *mockConnection) SetWriteDeadline(time.Time) error { return nil }
func (m *mockConnection) SetReadLimit(int64)               {}
func (m *mockConnection) SetPongHandler(func(string) error) {}
func (m *mockConnection) RemoteAddr() string               { return "127.0.0.1:50000" }

func (m *mockConnection) textFrames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [][]byte
	for _, f := range m.written {
		if f.Type == websocket.TextMessage {
			out = append(out, f.Data)
		}
	}
	return out
}

func (m *mockConnection) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
