package services

import (
	"context"
	"sync"

	"venturelink/domain/core/entities"
	"venturelink/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockBroadcaster is a mock implementation of ports.MessageBroadcaster
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) BroadcastMessage(ctx context.Context, msg *entities.Message) {
	m.Called(ctx, msg)
}

// MockEventBus is a mock implementation of ports.EventBus
type MockEventBus struct {
	mock.Mock
	mu        sync.Mutex
	published []events.DomainEvent
}

func (m *MockEventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	m.mu.Lock()
	m.published = append(m.published, event)
	m.mu.Unlock()
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventBus) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

func (m *MockEventBus) Published() []events.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.DomainEvent(nil), m.published...)
}
