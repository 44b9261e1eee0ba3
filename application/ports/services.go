package ports

import (
	"context"

	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	"venturelink/domain/events"
)

// EventBus publishes domain events to interested parties outside the process
type EventBus interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// MessageBroadcaster pushes a freshly appended message to live clients.
// Implementations deliver best-effort and never report delivery failures.
type MessageBroadcaster interface {
	BroadcastMessage(ctx context.Context, msg *entities.Message)
}

// ConnectionRegistry tracks live channel connections held outside the process,
// such as API Gateway websocket connections
type ConnectionRegistry interface {
	Register(ctx context.Context, conn *entities.Connection) error
	// Deregister is idempotent
	Deregister(ctx context.Context, connectionID string) error
	List(ctx context.Context) ([]*entities.Connection, error)
	CountByUser(ctx context.Context, userID valueobjects.UserID) (int, error)
}
