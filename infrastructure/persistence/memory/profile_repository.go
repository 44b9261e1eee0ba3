package memory

import (
	"context"
	"sync"
	"time"

	"venturelink/application/ports"
	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"
)

// ProfileRepository is an in-memory implementation of ports.ProfileRepository
type ProfileRepository struct {
	mu       sync.RWMutex
	profiles map[valueobjects.UserID]*entities.Profile
	nextID   int64
	now      func() time.Time
}

var _ ports.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates an empty profile repository
func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{
		profiles: make(map[valueobjects.UserID]*entities.Profile),
		nextID:   1,
		now:      time.Now,
	}
}

// Create stores the profile; each user has at most one
func (r *ProfileRepository) Create(ctx context.Context, profile *entities.Profile) (*entities.Profile, error) {
	if profile == nil || profile.UserID.IsZero() {
		return nil, pkgerrors.NewValidationError("profile must belong to a user")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[profile.UserID]; exists {
		return nil, pkgerrors.NewConflictError("profile already exists for user")
	}

	stored := profile.Clone()
	stored.ID = r.nextID
	stored.UpdatedAt = r.now()
	r.nextID++

	r.profiles[stored.UserID] = stored
	return stored.Clone(), nil
}

// GetByUserID returns a copy of the user's profile
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID valueobjects.UserID) (*entities.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[userID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("profile")
	}
	return profile.Clone(), nil
}

// Update replaces an existing profile, keeping its ID
func (r *ProfileRepository) Update(ctx context.Context, profile *entities.Profile) (*entities.Profile, error) {
	if profile == nil {
		return nil, pkgerrors.NewValidationError("profile is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.profiles[profile.UserID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("profile")
	}

	stored := profile.Clone()
	stored.ID = existing.ID
	stored.UpdatedAt = r.now()
	r.profiles[stored.UserID] = stored
	return stored.Clone(), nil
}
