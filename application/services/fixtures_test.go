package services

import (
	"context"
	"testing"
	"time"

	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	"venturelink/infrastructure/persistence/memory"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedTime = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

// steppingClock returns a clock that advances by step on every call
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	current := start.Add(-step)
	return func() time.Time {
		current = current.Add(step)
		return current
	}
}

// addUser registers a user with the given password and an optional profile
func addUser(t *testing.T, store *memory.Store, email string, role valueobjects.Role, password string, profile *entities.Profile) *entities.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user, err := entities.NewUser(email, string(hash), "First", "Last", role, "", fixedTime)
	require.NoError(t, err)
	created, err := store.Users.Create(context.Background(), user)
	require.NoError(t, err)

	if profile != nil {
		profile.UserID = created.ID
		_, err = store.Profiles.Create(context.Background(), profile)
		require.NoError(t, err)
	}
	return created
}
