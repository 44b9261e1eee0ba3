package messaging

import (
	"context"

	"venturelink/application/ports"
	"venturelink/domain/events"

	"go.uber.org/zap"
)

// LogPublisher is the event bus used when no EventBridge bus is configured.
// Events are written to the log and go nowhere else.
type LogPublisher struct {
	logger *zap.Logger
}

var _ ports.EventBus = (*LogPublisher)(nil)

// NewLogPublisher creates a new LogPublisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.logger.Debug("Domain event",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
		zap.Time("timestamp", event.GetTimestamp()),
	)
	return nil
}

func (p *LogPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, event := range batch {
		_ = p.Publish(ctx, event)
	}
	return nil
}
