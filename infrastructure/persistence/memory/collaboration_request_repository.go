package memory

import (
	"context"
	"sort"
	"sync"

	"venturelink/application/ports"
	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"
)

// CollaborationRequestRepository is an in-memory implementation of
// ports.CollaborationRequestRepository
type CollaborationRequestRepository struct {
	mu       sync.RWMutex
	requests map[valueobjects.RequestID]*entities.CollaborationRequest
	nextID   valueobjects.RequestID
}

var _ ports.CollaborationRequestRepository = (*CollaborationRequestRepository)(nil)

// NewCollaborationRequestRepository creates an empty request repository
func NewCollaborationRequestRepository() *CollaborationRequestRepository {
	return &CollaborationRequestRepository{
		requests: make(map[valueobjects.RequestID]*entities.CollaborationRequest),
		nextID:   1,
	}
}

// Create stores a copy of req under a fresh ID
func (r *CollaborationRequestRepository) Create(ctx context.Context, req *entities.CollaborationRequest) (*entities.CollaborationRequest, error) {
	if req == nil {
		return nil, pkgerrors.NewValidationError("collaboration request is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := req.Clone()
	stored.ID = r.nextID
	r.nextID++

	r.requests[stored.ID] = stored
	return stored.Clone(), nil
}

// GetByID returns a copy of the request
func (r *CollaborationRequestRepository) GetByID(ctx context.Context, id valueobjects.RequestID) (*entities.CollaborationRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("collaboration request")
	}
	return req.Clone(), nil
}

// ListByRecipient returns inbound requests, newest first
func (r *CollaborationRequestRepository) ListByRecipient(ctx context.Context, userID valueobjects.UserID) ([]*entities.CollaborationRequest, error) {
	r.mu.RLock()
	result := make([]*entities.CollaborationRequest, 0)
	for _, req := range r.requests {
		if req.ToUserID == userID {
			result = append(result, req.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// UpdateStatus swaps in req when the stored status still equals expected
func (r *CollaborationRequestRepository) UpdateStatus(ctx context.Context, req *entities.CollaborationRequest, expected valueobjects.RequestStatus) (*entities.CollaborationRequest, error) {
	if req == nil {
		return nil, pkgerrors.NewValidationError("collaboration request is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.requests[req.ID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("collaboration request")
	}
	if existing.Status != expected {
		return nil, pkgerrors.NewInvalidStateTransitionError(existing.Status.String(), req.Status.String())
	}

	// Only the status and its timestamp may change.
	stored := existing.Clone()
	stored.Status = req.Status
	stored.UpdatedAt = req.UpdatedAt
	r.requests[stored.ID] = stored
	return stored.Clone(), nil
}

// HasAccepted reports whether a and b are linked by an accepted request
func (r *CollaborationRequestRepository) HasAccepted(ctx context.Context, a, b valueobjects.UserID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, req := range r.requests {
		if req.Status == valueobjects.StatusAccepted && req.IsBetween(a, b) {
			return true, nil
		}
	}
	return false, nil
}
