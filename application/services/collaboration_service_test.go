package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	"venturelink/domain/events"
	"venturelink/infrastructure/persistence/memory"
	pkgerrors "venturelink/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type collaborationFixture struct {
	store    *memory.Store
	service  *CollaborationService
	eventBus *MockEventBus
	investor *entities.User
	founder  *entities.User
	other    *entities.User
}

func newCollaborationFixture(t *testing.T) *collaborationFixture {
	t.Helper()
	store := memory.NewStore()
	eventBus := &MockEventBus{}
	eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)

	f := &collaborationFixture{
		store:    store,
		eventBus: eventBus,
		investor: addUser(t, store, "alex@vc.com", valueobjects.RoleInvestor, "pw", &entities.Profile{
			Bio:                 "Early-stage investor",
			InvestmentInterests: []string{"AI/ML", "Healthcare"},
		}),
		founder: addUser(t, store, "sarah@greentech.com", valueobjects.RoleEntrepreneur, "pw", nil),
		other:   addUser(t, store, "marcus@healthai.com", valueobjects.RoleEntrepreneur, "pw", nil),
	}
	f.service = NewCollaborationService(
		store.Users, store.Profiles, store.Requests, eventBus, nil, zap.NewNop(),
	).WithClock(steppingClock(fixedTime, time.Minute))
	return f
}

func TestCollaborationService_CreateIsPending(t *testing.T) {
	// Arrange
	f := newCollaborationFixture(t)

	// Act
	req, err := f.service.Create(context.Background(), f.investor.ID, f.founder.ID, "  Let's talk Series A  ")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, valueobjects.RequestID(1), req.ID)
	assert.Equal(t, valueobjects.StatusPending, req.Status)
	assert.Equal(t, "Let's talk Series A", req.Message)
	assert.Equal(t, fixedTime, req.CreatedAt)
	assert.Empty(t, f.eventBus.Published())
}

func TestCollaborationService_CreateValidation(t *testing.T) {
	f := newCollaborationFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, f.investor.ID, f.investor.ID, "")
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = f.service.Create(ctx, f.investor.ID, 404, "")
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = f.service.Create(ctx, 404, f.founder.ID, "ghost pitch")
	assert.True(t, pkgerrors.IsUnauthorized(err))

	for _, user := range []*entities.User{f.investor, f.founder} {
		inbound, err := f.service.ListInbound(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, inbound)
	}
}

func TestCollaborationService_ListInboundEnrichesSender(t *testing.T) {
	f := newCollaborationFixture(t)
	ctx := context.Background()

	first, err := f.service.Create(ctx, f.investor.ID, f.founder.ID, "first")
	require.NoError(t, err)
	second, err := f.service.Create(ctx, f.other.ID, f.founder.ID, "second")
	require.NoError(t, err)
	_, err = f.service.Create(ctx, f.founder.ID, f.other.ID, "outbound")
	require.NoError(t, err)

	inbound, err := f.service.ListInbound(ctx, f.founder.ID)

	require.NoError(t, err)
	require.Len(t, inbound, 2)
	assert.Equal(t, second.ID, inbound[0].ID, "newest first")
	assert.Equal(t, first.ID, inbound[1].ID)

	initiator := inbound[1].FromUser
	require.NotNil(t, initiator)
	assert.Equal(t, f.investor.ID, initiator.ID)
	require.NotNil(t, initiator.Profile)
	assert.Equal(t, "Early-stage investor", initiator.Profile.Bio)
	assert.Empty(t, initiator.PasswordHash)
	assert.Nil(t, inbound[0].FromUser.Profile)

	raw, err := json.Marshal(inbound)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "$2a$")
	assert.Contains(t, string(raw), `"fromUser"`)
}

func TestCollaborationService_SetStatus(t *testing.T) {
	tests := []struct {
		name   string
		status valueobjects.RequestStatus
	}{
		{name: "accept", status: valueobjects.StatusAccepted},
		{name: "decline", status: valueobjects.StatusDeclined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCollaborationFixture(t)
			ctx := context.Background()
			req, err := f.service.Create(ctx, f.investor.ID, f.founder.ID, "hello")
			require.NoError(t, err)

			updated, err := f.service.SetStatus(ctx, f.founder.ID, req.ID, tt.status)

			require.NoError(t, err)
			assert.Equal(t, tt.status, updated.Status)
			assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

			stored, err := f.store.Requests.GetByID(ctx, req.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.status, stored.Status)

			published := f.eventBus.Published()
			require.Len(t, published, 1)
			event, ok := published[0].(events.CollaborationRequestResponded)
			require.True(t, ok)
			assert.Equal(t, tt.status.String(), event.Status)
		})
	}
}

func TestCollaborationService_SetStatusTerminalIsFinal(t *testing.T) {
	f := newCollaborationFixture(t)
	ctx := context.Background()
	req, err := f.service.Create(ctx, f.investor.ID, f.founder.ID, "")
	require.NoError(t, err)

	_, err = f.service.SetStatus(ctx, f.founder.ID, req.ID, valueobjects.StatusAccepted)
	require.NoError(t, err)

	_, err = f.service.SetStatus(ctx, f.founder.ID, req.ID, valueobjects.StatusDeclined)

	require.Error(t, err)
	assert.True(t, pkgerrors.IsInvalidStateTransition(err))
	stored, err := f.store.Requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.StatusAccepted, stored.Status)
}

func TestCollaborationService_SetStatusFailures(t *testing.T) {
	tests := []struct {
		name      string
		responder func(f *collaborationFixture) valueobjects.UserID
		id        func(req *entities.CollaborationRequest) valueobjects.RequestID
		status    valueobjects.RequestStatus
		check     func(error) bool
	}{
		{
			name:      "unknown request",
			responder: func(f *collaborationFixture) valueobjects.UserID { return f.founder.ID },
			id:        func(*entities.CollaborationRequest) valueobjects.RequestID { return 999 },
			status:    valueobjects.StatusAccepted,
			check:     pkgerrors.IsNotFound,
		},
		{
			name:      "pending is not a response",
			responder: func(f *collaborationFixture) valueobjects.UserID { return f.founder.ID },
			id:        func(req *entities.CollaborationRequest) valueobjects.RequestID { return req.ID },
			status:    valueobjects.StatusPending,
			check:     pkgerrors.IsValidation,
		},
		{
			name:      "sender cannot respond",
			responder: func(f *collaborationFixture) valueobjects.UserID { return f.investor.ID },
			id:        func(req *entities.CollaborationRequest) valueobjects.RequestID { return req.ID },
			status:    valueobjects.StatusAccepted,
			check:     pkgerrors.IsForbidden,
		},
		{
			name:      "third party cannot respond",
			responder: func(f *collaborationFixture) valueobjects.UserID { return f.other.ID },
			id:        func(req *entities.CollaborationRequest) valueobjects.RequestID { return req.ID },
			status:    valueobjects.StatusDeclined,
			check:     pkgerrors.IsForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCollaborationFixture(t)
			ctx := context.Background()
			req, err := f.service.Create(ctx, f.investor.ID, f.founder.ID, "")
			require.NoError(t, err)

			_, err = f.service.SetStatus(ctx, tt.responder(f), tt.id(req), tt.status)

			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			stored, err := f.store.Requests.GetByID(ctx, req.ID)
			require.NoError(t, err)
			assert.Equal(t, valueobjects.StatusPending, stored.Status)
			assert.Empty(t, f.eventBus.Published())
		})
	}
}
