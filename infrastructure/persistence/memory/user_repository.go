package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"venturelink/application/ports"
	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"
)

// UserRepository is an in-memory implementation of ports.UserRepository
type UserRepository struct {
	mu      sync.RWMutex
	users   map[valueobjects.UserID]*entities.User
	byEmail map[string]valueobjects.UserID
	nextID  valueobjects.UserID
}

var _ ports.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates an empty user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   make(map[valueobjects.UserID]*entities.User),
		byEmail: make(map[string]valueobjects.UserID),
		nextID:  1,
	}
}

// Create stores a copy of user under a fresh ID
func (r *UserRepository) Create(ctx context.Context, user *entities.User) (*entities.User, error) {
	if user == nil {
		return nil, pkgerrors.NewValidationError("user is required")
	}
	email := strings.ToLower(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return nil, pkgerrors.NewConflictError("email already registered")
	}

	stored := user.Clone()
	stored.ID = r.nextID
	stored.Email = email
	r.nextID++

	r.users[stored.ID] = stored
	r.byEmail[email] = stored.ID
	return stored.Clone(), nil
}

// GetByID returns a copy of the user
func (r *UserRepository) GetByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	return user.Clone(), nil
}

// GetByEmail looks a user up by case-insensitive email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	return r.users[id].Clone(), nil
}

// List returns copies of the users with role, or of every user when role is empty
func (r *UserRepository) List(ctx context.Context, role valueobjects.Role) ([]*entities.User, error) {
	r.mu.RLock()
	users := make([]*entities.User, 0, len(r.users))
	for _, user := range r.users {
		if role == "" || user.Role == role {
			users = append(users, user.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}
