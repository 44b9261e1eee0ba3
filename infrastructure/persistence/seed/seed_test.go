package seed

import (
	"context"
	"testing"

	"venturelink/domain/core/valueobjects"
	"venturelink/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func repositories(store *memory.Store) Repositories {
	return Repositories{Users: store.Users, Profiles: store.Profiles, Requests: store.Requests}
}

func TestRun_SeedsAccountsAndOpeningRequest(t *testing.T) {
	// Arrange
	store := memory.NewStore()
	ctx := context.Background()

	// Act
	err := Run(ctx, repositories(store), zap.NewNop())

	// Assert
	require.NoError(t, err)

	alex, err := store.Users.GetByEmail(ctx, "alex.thompson@vcpartners.com")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.UserID(1), alex.ID)
	assert.Equal(t, valueobjects.RoleInvestor, alex.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(alex.PasswordHash), []byte(DefaultPassword)))

	sarah, err := store.Users.GetByEmail(ctx, "sarah.chen@greentech.com")
	require.NoError(t, err)
	profile, err := store.Profiles.GetByUserID(ctx, sarah.ID)
	require.NoError(t, err)
	assert.Equal(t, "GreenTech Solutions", profile.CompanyName)
	assert.Len(t, profile.TeamMembers, 2)

	for _, email := range []string{"marcus.rodriguez@healthai.com", "priya.patel@educonnect.com"} {
		user, err := store.Users.GetByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, valueobjects.RoleEntrepreneur, user.Role)
	}

	inbound, err := store.Requests.ListByRecipient(ctx, sarah.ID)
	require.NoError(t, err)
	require.Len(t, inbound, 1)
	assert.Equal(t, alex.ID, inbound[0].FromUserID)
	assert.Equal(t, valueobjects.StatusPending, inbound[0].Status)
	assert.Contains(t, inbound[0].Message, "Series A")
}

func TestRun_IsIdempotent(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, Run(ctx, repositories(store), zap.NewNop()))

	require.NoError(t, Run(ctx, repositories(store), zap.NewNop()))

	_, err := store.Users.GetByID(ctx, 5)
	assert.Error(t, err, "no second batch of users")
}
