package ports

import (
	"context"

	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
)

// Repositories assign monotonically increasing IDs on Create and never reuse them.
// Every entity they return is a copy: mutating it has no effect on the store.
// Lookups of unknown IDs fail with a NOT_FOUND AppError.

// UserRepository stores user accounts
type UserRepository interface {
	// Create assigns an ID; a duplicate email fails with CONFLICT
	Create(ctx context.Context, user *entities.User) (*entities.User, error)
	GetByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	// List returns the users of one role ordered by ID; an empty role lists everyone
	List(ctx context.Context, role valueobjects.Role) ([]*entities.User, error)
}

// ProfileRepository stores one profile per user
type ProfileRepository interface {
	Create(ctx context.Context, profile *entities.Profile) (*entities.Profile, error)
	GetByUserID(ctx context.Context, userID valueobjects.UserID) (*entities.Profile, error)
	// Update replaces the profile and stamps UpdatedAt
	Update(ctx context.Context, profile *entities.Profile) (*entities.Profile, error)
}

// CollaborationRequestRepository stores collaboration requests
type CollaborationRequestRepository interface {
	Create(ctx context.Context, req *entities.CollaborationRequest) (*entities.CollaborationRequest, error)
	GetByID(ctx context.Context, id valueobjects.RequestID) (*entities.CollaborationRequest, error)
	// ListByRecipient returns the requests addressed to userID, newest first
	ListByRecipient(ctx context.Context, userID valueobjects.UserID) ([]*entities.CollaborationRequest, error)
	// UpdateStatus persists req only if the stored status still equals expected.
	// A lost race fails with INVALID_STATE_TRANSITION and leaves the record untouched.
	UpdateStatus(ctx context.Context, req *entities.CollaborationRequest, expected valueobjects.RequestStatus) (*entities.CollaborationRequest, error)
	// HasAccepted reports whether an accepted request links a and b in either direction
	HasAccepted(ctx context.Context, a, b valueobjects.UserID) (bool, error)
}

// MessageRepository is the append-only message log
type MessageRepository interface {
	Create(ctx context.Context, msg *entities.Message) (*entities.Message, error)
	// ListConversation returns every message of the conversation sorted by (CreatedAt, ID)
	ListConversation(ctx context.Context, key valueobjects.ConversationKey) ([]*entities.Message, error)
}
