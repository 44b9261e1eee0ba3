package events

import (
	"time"

	"venturelink/domain/core/entities"
)

// SourceBackend is the event source used when publishing to an event bus
const SourceBackend = "venturelink.backend"

// Event types
const (
	TypeMessageSent                   = "message.sent"
	TypeCollaborationRequestResponded = "collaboration_request.responded"
)

// DomainEvent is implemented by every event the application publishes
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// MessageSent is raised after a message is durably appended
type MessageSent struct {
	BaseEvent
	Message entities.Message `json:"message"`
}

// NewMessageSent creates a MessageSent event for msg
func NewMessageSent(msg *entities.Message) MessageSent {
	return MessageSent{
		BaseEvent: BaseEvent{
			AggregateID: "conversation#" + msg.ConversationKey().String(),
			EventType:   TypeMessageSent,
			Timestamp:   msg.CreatedAt,
			Version:     1,
		},
		Message: *msg,
	}
}

// CollaborationRequestResponded is raised when a recipient accepts or declines a request
type CollaborationRequestResponded struct {
	BaseEvent
	RequestID  int64  `json:"requestId"`
	FromUserID int64  `json:"fromUserId"`
	ToUserID   int64  `json:"toUserId"`
	Status     string `json:"status"`
}

// NewCollaborationRequestResponded creates the event for a request that just reached a terminal state
func NewCollaborationRequestResponded(req *entities.CollaborationRequest) CollaborationRequestResponded {
	return CollaborationRequestResponded{
		BaseEvent: BaseEvent{
			AggregateID: "request#" + req.ID.String(),
			EventType:   TypeCollaborationRequestResponded,
			Timestamp:   req.UpdatedAt,
			Version:     1,
		},
		RequestID:  req.ID.Int64(),
		FromUserID: req.FromUserID.Int64(),
		ToUserID:   req.ToUserID.Int64(),
		Status:     req.Status.String(),
	}
}
