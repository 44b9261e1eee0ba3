// Package handlers holds the HTTP handlers of the /api/v1 surface.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"venturelink/application/services"
	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	"venturelink/pkg/common"
	pkgerrors "venturelink/pkg/errors"

	"go.uber.org/zap"
)

// ConversationService is the conversation log as the handlers use it
type ConversationService interface {
	Append(ctx context.Context, from, to valueobjects.UserID, content string) (*entities.Message, error)
	List(ctx context.Context, a, b valueobjects.UserID, limit int) ([]*entities.Message, error)
}

// CollaborationService is the request state machine as the handlers use it
type CollaborationService interface {
	Create(ctx context.Context, from, to valueobjects.UserID, message string) (*entities.CollaborationRequest, error)
	ListInbound(ctx context.Context, userID valueobjects.UserID) ([]*entities.CollaborationRequestWithInitiator, error)
	SetStatus(ctx context.Context, responder valueobjects.UserID, id valueobjects.RequestID, status valueobjects.RequestStatus) (*entities.CollaborationRequest, error)
}

// UserService manages accounts, profiles and the user directory
type UserService interface {
	Register(ctx context.Context, reg services.Registration) (*entities.UserWithProfile, error)
	Authenticate(ctx context.Context, email, password string) (*entities.UserWithProfile, error)
	GetPublicUser(ctx context.Context, id valueobjects.UserID) (*entities.UserWithProfile, error)
	List(ctx context.Context, viewer valueobjects.UserID, role valueobjects.Role) ([]*entities.UserWithProfile, error)
	UpdateProfile(ctx context.Context, userID valueobjects.UserID, update services.ProfileUpdate) (*entities.Profile, error)
}

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return pkgerrors.NewValidationError("invalid request body").WithCause(err)
	}
	return nil
}

func currentUser(r *http.Request) (valueobjects.UserID, error) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		return 0, pkgerrors.NewUnauthorizedError("authentication required")
	}
	return userID, nil
}
