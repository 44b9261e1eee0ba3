package services

import (
	"context"
	"fmt"
	"time"

	"venturelink/application/ports"
	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	"venturelink/domain/events"
	pkgerrors "venturelink/pkg/errors"
	"venturelink/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ConversationConfig controls messaging policy
type ConversationConfig struct {
	// RequireAcceptedRequest only lets two users message each other once a
	// collaboration request between them has been accepted. Off by default:
	// any authenticated user may message any other.
	RequireAcceptedRequest bool
}

// ConversationService owns the conversation log: it appends messages,
// pushes them to live clients and serves ordered history.
type ConversationService struct {
	users       ports.UserRepository
	messages    ports.MessageRepository
	requests    ports.CollaborationRequestRepository
	broadcaster ports.MessageBroadcaster
	eventBus    ports.EventBus
	config      ConversationConfig
	metrics     *observability.Collector
	logger      *zap.Logger
	tracer      trace.Tracer
	clock       *monotonicClock
}

// NewConversationService creates a new conversation service.
// broadcaster, eventBus and metrics may be nil.
func NewConversationService(
	users ports.UserRepository,
	messages ports.MessageRepository,
	requests ports.CollaborationRequestRepository,
	broadcaster ports.MessageBroadcaster,
	eventBus ports.EventBus,
	config ConversationConfig,
	metrics *observability.Collector,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		users:       users,
		messages:    messages,
		requests:    requests,
		broadcaster: broadcaster,
		eventBus:    eventBus,
		config:      config,
		metrics:     metrics,
		logger:      logger,
		tracer:      observability.Tracer("venturelink/services/conversation"),
		clock:       newMonotonicClock(time.Now),
	}
}

// WithClock replaces the server clock used to stamp messages
func (s *ConversationService) WithClock(now func() time.Time) *ConversationService {
	s.clock = newMonotonicClock(now)
	return s
}

// Append stores a message from one user to another and then fans it out.
// The message is durable before any live delivery is attempted, and a failed
// delivery never fails the append.
func (s *ConversationService) Append(ctx context.Context, from, to valueobjects.UserID, rawContent string) (*entities.Message, error) {
	ctx, span := s.tracer.Start(ctx, "ConversationService.Append", trace.WithAttributes(
		attribute.Int64("message.from", from.Int64()),
		attribute.Int64("message.to", to.Int64()),
	))
	defer span.End()

	content, err := valueobjects.NewMessageContent(rawContent)
	if err != nil {
		return nil, err
	}

	msg, err := entities.NewMessage(from, to, content, time.Time{})
	if err != nil {
		return nil, err
	}

	if err := requireSender(ctx, s.users, from); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, to); err != nil {
		return nil, err
	}

	if s.config.RequireAcceptedRequest {
		ok, err := s.requests.HasAccepted(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to check collaboration status: %w", err)
		}
		if !ok {
			return nil, pkgerrors.NewForbiddenError("an accepted collaboration request is required before messaging")
		}
	}

	// Stamped last so slow lookups cannot put it behind a message stored meanwhile
	msg.CreatedAt = s.clock.Now()
	created, err := s.messages.Create(ctx, msg)
	if err != nil {
		s.logger.Error("Failed to append message",
			zap.Error(err),
			zap.Int64("from", from.Int64()),
			zap.Int64("to", to.Int64()),
		)
		return nil, err
	}

	s.metrics.RecordMessageSent()
	span.SetAttributes(attribute.Int64("message.id", created.ID.Int64()))

	s.logger.Debug("Message appended",
		zap.Int64("messageID", created.ID.Int64()),
		zap.String("conversation", created.ConversationKey().String()),
	)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastMessage(ctx, created.Clone())
	}
	s.publish(ctx, events.NewMessageSent(created))

	return created, nil
}

// List returns the conversation between a and b in (CreatedAt, ID) order.
// The pair is unordered, so List(a, b) and List(b, a) are identical. A positive
// limit keeps only the most recent messages.
func (s *ConversationService) List(ctx context.Context, a, b valueobjects.UserID, limit int) ([]*entities.Message, error) {
	ctx, span := s.tracer.Start(ctx, "ConversationService.List")
	defer span.End()

	key := valueobjects.NewConversationKey(a, b)
	messages, err := s.messages.ListConversation(ctx, key)
	if err != nil {
		return nil, err
	}

	messages = entities.TailConversation(messages, limit)
	span.SetAttributes(
		attribute.String("conversation", key.String()),
		attribute.Int("message.count", len(messages)),
	)
	return messages, nil
}

func (s *ConversationService) publish(ctx context.Context, event events.DomainEvent) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish domain event",
			zap.Error(err),
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateID", event.GetAggregateID()),
		)
	}
}
