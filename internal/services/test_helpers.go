package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"shortwatch/internal/loader"
)

// MockWebSocketHub is a mock for the Notifier interface
type MockWebSocketHub struct {
	mock.Mock
}

func (m *MockWebSocketHub) Broadcast(messageType string, data interface{}) {
	m.Called(messageType, data)
}

// MockSnapshotLoader is a mock for the SnapshotLoader interface
type MockSnapshotLoader struct {
	mock.Mock
}

func (m *MockSnapshotLoader) Load(ctx context.Context) (*loader.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loader.Snapshot), args.Error(1)
}
