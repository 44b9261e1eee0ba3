package entities

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"
)

// MaxRequestMessageLength bounds the optional note attached to a request
const MaxRequestMessageLength = 2000

// CollaborationRequest is a directed invitation from one user to another.
// Requests are never deleted and several may exist between the same pair.
type CollaborationRequest struct {
	ID         valueobjects.RequestID     `json:"id"`
	FromUserID valueobjects.UserID        `json:"fromUserId"`
	ToUserID   valueobjects.UserID        `json:"toUserId"`
	Message    string                     `json:"message,omitempty"`
	Status     valueobjects.RequestStatus `json:"status"`
	CreatedAt  time.Time                  `json:"createdAt"`
	UpdatedAt  time.Time                  `json:"updatedAt"`
}

// NewCollaborationRequest creates a pending request
func NewCollaborationRequest(from, to valueobjects.UserID, message string, now time.Time) (*CollaborationRequest, error) {
	if from.IsZero() || to.IsZero() {
		return nil, pkgerrors.NewValidationError("both users are required")
	}
	if from == to {
		return nil, pkgerrors.NewValidationError("cannot send a collaboration request to yourself")
	}
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) > MaxRequestMessageLength {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("message exceeds maximum length of %d characters", MaxRequestMessageLength))
	}

	return &CollaborationRequest{
		FromUserID: from,
		ToUserID:   to,
		Message:    message,
		Status:     valueobjects.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Respond moves the request into a terminal state on behalf of responder.
// The request is left untouched when any check fails.
func (r *CollaborationRequest) Respond(responder valueobjects.UserID, status valueobjects.RequestStatus, now time.Time) error {
	if !status.IsTerminal() {
		return pkgerrors.NewValidationError("status must be one of: accepted, declined")
	}
	if responder != r.ToUserID {
		return pkgerrors.NewForbiddenError("only the recipient can respond to a collaboration request")
	}
	if !r.Status.CanTransitionTo(status) {
		return pkgerrors.NewInvalidStateTransitionError(r.Status.String(), status.String())
	}

	r.Status = status
	r.UpdatedAt = now
	return nil
}

// IsBetween reports whether the request connects a and b in either direction
func (r *CollaborationRequest) IsBetween(a, b valueobjects.UserID) bool {
	return valueobjects.NewConversationKey(r.FromUserID, r.ToUserID) == valueobjects.NewConversationKey(a, b)
}

// Clone returns an independent copy
func (r *CollaborationRequest) Clone() *CollaborationRequest {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// CollaborationRequestWithInitiator is an inbound request enriched with the
// public view of the user who sent it.
type CollaborationRequestWithInitiator struct {
	CollaborationRequest
	FromUser *UserWithProfile `json:"fromUser"`
}
