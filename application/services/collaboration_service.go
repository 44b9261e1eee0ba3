package services

import (
	"context"
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

// CollaborationService runs the collaboration request lifecycle:
// pending requests are created by the sender and resolved once by the recipient.
type CollaborationService struct {
	users    ports.UserRepository
	profiles ports.ProfileRepository
	requests ports.CollaborationRequestRepository
	eventBus ports.EventBus
	metrics  *observability.Collector
	logger   *zap.Logger
	tracer   trace.Tracer
	clock    *monotonicClock
}

// NewCollaborationService creates a new collaboration service
func NewCollaborationService(
	users ports.UserRepository,
	profiles ports.ProfileRepository,
	requests ports.CollaborationRequestRepository,
	eventBus ports.EventBus,
	metrics *observability.Collector,
	logger *zap.Logger,
) *CollaborationService {
	return &CollaborationService{
		users:    users,
		profiles: profiles,
		requests: requests,
		eventBus: eventBus,
		metrics:  metrics,
		logger:   logger,
		tracer:   observability.Tracer("venturelink/services/collaboration"),
		clock:    newMonotonicClock(time.Now),
	}
}

// WithClock replaces the clock used to stamp requests
func (s *CollaborationService) WithClock(now func() time.Time) *CollaborationService {
	s.clock = newMonotonicClock(now)
	return s
}

// Create records a new pending request. Nothing else happens: the recipient is
// not notified and no message is sent.
func (s *CollaborationService) Create(ctx context.Context, from, to valueobjects.UserID, message string) (*entities.CollaborationRequest, error) {
	ctx, span := s.tracer.Start(ctx, "CollaborationService.Create", trace.WithAttributes(
		attribute.Int64("request.from", from.Int64()),
		attribute.Int64("request.to", to.Int64()),
	))
	defer span.End()

	req, err := entities.NewCollaborationRequest(from, to, message, time.Time{})
	if err != nil {
		return nil, err
	}

	if err := requireSender(ctx, s.users, from); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, to); err != nil {
		return nil, err
	}

	stamp := s.clock.Now()
	req.CreatedAt, req.UpdatedAt = stamp, stamp
	created, err := s.requests.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRequestCreated()
	s.logger.Info("Collaboration request created",
		zap.Int64("requestID", created.ID.Int64()),
		zap.Int64("from", from.Int64()),
		zap.Int64("to", to.Int64()),
	)
	return created, nil
}

// ListInbound returns the requests addressed to userID, newest first, each with
// the public view of its sender.
func (s *CollaborationService) ListInbound(ctx context.Context, userID valueobjects.UserID) ([]*entities.CollaborationRequestWithInitiator, error) {
	ctx, span := s.tracer.Start(ctx, "CollaborationService.ListInbound")
	defer span.End()

	requests, err := s.requests.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}

	initiators := make(map[valueobjects.UserID]*entities.UserWithProfile)
	result := make([]*entities.CollaborationRequestWithInitiator, 0, len(requests))

	for _, req := range requests {
		initiator, seen := initiators[req.FromUserID]
		if !seen {
			initiator, err = s.publicUser(ctx, req.FromUserID)
			if err != nil && !pkgerrors.IsNotFound(err) {
				return nil, err
			}
			if err != nil {
				s.logger.Warn("Collaboration request sender not found",
					zap.Int64("requestID", req.ID.Int64()),
					zap.Int64("from", req.FromUserID.Int64()),
				)
			}
			initiators[req.FromUserID] = initiator
		}

		result = append(result, &entities.CollaborationRequestWithInitiator{
			CollaborationRequest: *req,
			FromUser:             initiator,
		})
	}

	span.SetAttributes(attribute.Int("request.count", len(result)))
	return result, nil
}

// SetStatus resolves a pending request on behalf of responder.
//
// It fails with NOT_FOUND for an unknown ID, VALIDATION for a status other than
// accepted or declined, FORBIDDEN when the responder is not the recipient and
// INVALID_STATE_TRANSITION when the request has already been resolved. On any
// failure the stored request is unchanged.
func (s *CollaborationService) SetStatus(ctx context.Context, responder valueobjects.UserID, id valueobjects.RequestID, status valueobjects.RequestStatus) (*entities.CollaborationRequest, error) {
	ctx, span := s.tracer.Start(ctx, "CollaborationService.SetStatus", trace.WithAttributes(
		attribute.Int64("request.id", id.Int64()),
		attribute.String("request.status", status.String()),
	))
	defer span.End()

	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := req.Status
	if err := req.Respond(responder, status, s.clock.Now()); err != nil {
		return nil, err
	}

	updated, err := s.requests.UpdateStatus(ctx, req, previous)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRequestResponded(updated.Status.String())
	s.logger.Info("Collaboration request resolved",
		zap.Int64("requestID", updated.ID.Int64()),
		zap.String("status", updated.Status.String()),
	)

	if s.eventBus != nil {
		if err := s.eventBus.Publish(ctx, events.NewCollaborationRequestResponded(updated)); err != nil {
			s.logger.Warn("Failed to publish domain event",
				zap.Error(err),
				zap.String("eventType", events.TypeCollaborationRequestResponded),
			)
		}
	}

	return updated, nil
}

func (s *CollaborationService) publicUser(ctx context.Context, id valueobjects.UserID) (*entities.UserWithProfile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByUserID(ctx, id)
	if err != nil && !pkgerrors.IsNotFound(err) {
		return nil, err
	}
	return entities.NewUserWithProfile(user, profile), nil
}
