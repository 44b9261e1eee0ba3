package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	"venturelink/infrastructure/persistence/memory"
	pkgerrors "venturelink/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type conversationFixture struct {
	store       *memory.Store
	service     *ConversationService
	broadcaster *MockBroadcaster
	eventBus    *MockEventBus
	alice       *entities.User
	bob         *entities.User
}

func newConversationFixture(t *testing.T, config ConversationConfig) *conversationFixture {
	t.Helper()
	store := memory.NewStore()
	broadcaster := &MockBroadcaster{}
	eventBus := &MockEventBus{}

	f := &conversationFixture{
		store:       store,
		broadcaster: broadcaster,
		eventBus:    eventBus,
		alice:       addUser(t, store, "alice@vc.com", valueobjects.RoleInvestor, "pw", nil),
		bob:         addUser(t, store, "bob@startup.com", valueobjects.RoleEntrepreneur, "pw", nil),
	}
	f.service = NewConversationService(
		store.Users, store.Messages, store.Requests,
		broadcaster, eventBus, config, nil, zap.NewNop(),
	).WithClock(steppingClock(fixedTime, time.Second))
	return f
}

func (f *conversationFixture) expectDelivery() {
	f.broadcaster.On("BroadcastMessage", mock.Anything, mock.Anything).Return()
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)
}

func TestConversationService_AppendThenListEndsWithNewMessage(t *testing.T) {
	// Arrange
	f := newConversationFixture(t, ConversationConfig{})
	f.expectDelivery()
	ctx := context.Background()

	_, err := f.service.Append(ctx, f.alice.ID, f.bob.ID, "first")
	require.NoError(t, err)

	// Act
	created, err := f.service.Append(ctx, f.bob.ID, f.alice.ID, "  second  ")
	require.NoError(t, err)
	history, err := f.service.List(ctx, f.alice.ID, f.bob.ID, 0)
	require.NoError(t, err)

	// Assert
	require.Len(t, history, 2)
	assert.Equal(t, created.ID, history[1].ID)
	assert.Equal(t, "second", history[1].Content)
	f.broadcaster.AssertNumberOfCalls(t, "BroadcastMessage", 2)
}

func TestConversationService_HelloHiScenario(t *testing.T) {
	f := newConversationFixture(t, ConversationConfig{})
	f.expectDelivery()
	ctx := context.Background()

	_, err := f.service.Append(ctx, f.alice.ID, f.bob.ID, "hello")
	require.NoError(t, err)
	_, err = f.service.Append(ctx, f.bob.ID, f.alice.ID, "hi")
	require.NoError(t, err)

	ab, err := f.service.List(ctx, f.alice.ID, f.bob.ID, 0)
	require.NoError(t, err)
	ba, err := f.service.List(ctx, f.bob.ID, f.alice.ID, 0)
	require.NoError(t, err)

	require.Len(t, ab, 2)
	assert.Equal(t, "hello", ab[0].Content)
	assert.Equal(t, "hi", ab[1].Content)
	assert.True(t, ab[0].CreatedAt.Before(ab[1].CreatedAt))
	assert.Equal(t, ab, ba)
}

func TestConversationService_OrderingTiesBrokenByID(t *testing.T) {
	f := newConversationFixture(t, ConversationConfig{})
	f.expectDelivery()
	f.service.WithClock(func() time.Time { return fixedTime })
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c"} {
		_, err := f.service.Append(ctx, f.alice.ID, f.bob.ID, text)
		require.NoError(t, err)
	}

	history, err := f.service.List(ctx, f.bob.ID, f.alice.ID, 0)
	require.NoError(t, err)

	require.Len(t, history, 3)
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].CreatedAt.Before(history[i-1].CreatedAt))
		assert.Greater(t, history[i].ID, history[i-1].ID)
	}
	assert.Equal(t, "a", history[0].Content)
	assert.Equal(t, "c", history[2].Content)
}

func TestConversationService_StampsNeverGoBackwards(t *testing.T) {
	// Arrange
	f := newConversationFixture(t, ConversationConfig{})
	f.expectDelivery()
	stamps := []time.Time{fixedTime, fixedTime.Add(-time.Minute), fixedTime.Add(time.Second)}
	calls := 0
	f.service.WithClock(func() time.Time {
		stamp := stamps[calls]
		calls++
		return stamp
	})
	ctx := context.Background()

	// Act
	for _, text := range []string{"one", "two", "three"} {
		_, err := f.service.Append(ctx, f.alice.ID, f.bob.ID, text)
		require.NoError(t, err)
	}
	history, err := f.service.List(ctx, f.alice.ID, f.bob.ID, 0)
	require.NoError(t, err)

	// Assert
	require.Len(t, history, 3)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []string{"one", "two", "three"}, []string{history[0].Content, history[1].Content, history[2].Content})
	assert.Equal(t, fixedTime, history[1].CreatedAt)
	assert.Equal(t, fixedTime.Add(time.Second), history[2].CreatedAt)
}

func TestConversationService_RejectedAppendDoesNotReadClock(t *testing.T) {
	f := newConversationFixture(t, ConversationConfig{})
	calls := 0
	f.service.WithClock(func() time.Time {
		calls++
		return fixedTime
	})

	_, err := f.service.Append(context.Background(), f.alice.ID, 999, "nobody")

	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Zero(t, calls)
}

func TestConversationService_AppendValidation(t *testing.T) {
	tests := []struct {
		name    string
		from    func(f *conversationFixture) valueobjects.UserID
		to      func(f *conversationFixture) valueobjects.UserID
		content string
		check   func(error) bool
	}{
		{
			name:    "empty content",
			from:    func(f *conversationFixture) valueobjects.UserID { return f.alice.ID },
			to:      func(f *conversationFixture) valueobjects.UserID { return f.bob.ID },
			content: "",
			check:   pkgerrors.IsValidation,
		},
		{
			name:    "whitespace only content",
			from:    func(f *conversationFixture) valueobjects.UserID { return f.alice.ID },
			to:      func(f *conversationFixture) valueobjects.UserID { return f.bob.ID },
			content: "   \n\t",
			check:   pkgerrors.IsValidation,
		},
		{
			name:    "self message",
			from:    func(f *conversationFixture) valueobjects.UserID { return f.alice.ID },
			to:      func(f *conversationFixture) valueobjects.UserID { return f.alice.ID },
			content: "x",
			check:   pkgerrors.IsValidation,
		},
		{
			name:    "unknown peer",
			from:    func(f *conversationFixture) valueobjects.UserID { return f.alice.ID },
			to:      func(f *conversationFixture) valueobjects.UserID { return 999 },
			content: "anyone there?",
			check:   pkgerrors.IsNotFound,
		},
		{
			name:    "unknown sender",
			from:    func(f *conversationFixture) valueobjects.UserID { return 999 },
			to:      func(f *conversationFixture) valueobjects.UserID { return f.bob.ID },
			content: "from a deleted account",
			check:   pkgerrors.IsUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newConversationFixture(t, ConversationConfig{})
			ctx := context.Background()
			from, to := tt.from(f), tt.to(f)

			msg, err := f.service.Append(ctx, from, to, tt.content)

			require.Error(t, err)
			assert.Nil(t, msg)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			f.broadcaster.AssertNotCalled(t, "BroadcastMessage", mock.Anything, mock.Anything)

			history, err := f.service.List(ctx, from, to, 0)
			require.NoError(t, err)
			assert.Empty(t, history)
		})
	}
}

func TestConversationService_SelfConversationListIsEmpty(t *testing.T) {
	f := newConversationFixture(t, ConversationConfig{})

	history, err := f.service.List(context.Background(), f.alice.ID, f.alice.ID, 0)

	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestConversationService_AppendWithoutLiveClients(t *testing.T) {
	store := memory.NewStore()
	alice := addUser(t, store, "alice@vc.com", valueobjects.RoleInvestor, "pw", nil)
	bob := addUser(t, store, "bob@startup.com", valueobjects.RoleEntrepreneur, "pw", nil)
	service := NewConversationService(store.Users, store.Messages, store.Requests, nil, nil, ConversationConfig{}, nil, zap.NewNop())

	msg, err := service.Append(context.Background(), alice.ID, bob.ID, "nobody is listening")

	require.NoError(t, err)
	assert.Equal(t, valueobjects.MessageID(1), msg.ID)
}

func TestConversationService_EventBusFailureDoesNotFailAppend(t *testing.T) {
	f := newConversationFixture(t, ConversationConfig{})
	f.broadcaster.On("BroadcastMessage", mock.Anything, mock.Anything).Return()
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(errors.New("event bus down"))

	msg, err := f.service.Append(context.Background(), f.alice.ID, f.bob.ID, "still stored")

	require.NoError(t, err)
	require.NotNil(t, msg)
	history, _ := f.service.List(context.Background(), f.alice.ID, f.bob.ID, 0)
	assert.Len(t, history, 1)
}

func TestConversationService_BroadcastsStoredMessage(t *testing.T) {
	f := newConversationFixture(t, ConversationConfig{})
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)
	f.broadcaster.On("BroadcastMessage", mock.Anything, mock.MatchedBy(func(m *entities.Message) bool {
		return m.ID == 1 && m.Content == "live" && m.FromUserID == f.alice.ID
	})).Return().Once()

	_, err := f.service.Append(context.Background(), f.alice.ID, f.bob.ID, "live")

	require.NoError(t, err)
	f.broadcaster.AssertExpectations(t)
	require.Len(t, f.eventBus.Published(), 1)
	assert.Equal(t, "message.sent", f.eventBus.Published()[0].GetEventType())
}

func TestConversationService_ListLimitKeepsMostRecent(t *testing.T) {
	f := newConversationFixture(t, ConversationConfig{})
	f.expectDelivery()
	ctx := context.Background()
	for _, text := range []string{"one", "two", "three", "four"} {
		_, err := f.service.Append(ctx, f.alice.ID, f.bob.ID, text)
		require.NoError(t, err)
	}

	recent, err := f.service.List(ctx, f.alice.ID, f.bob.ID, 2)

	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "three", recent[0].Content)
	assert.Equal(t, "four", recent[1].Content)
}

func TestConversationService_RequireAcceptedRequest(t *testing.T) {
	f := newConversationFixture(t, ConversationConfig{RequireAcceptedRequest: true})
	f.expectDelivery()
	ctx := context.Background()

	_, err := f.service.Append(ctx, f.alice.ID, f.bob.ID, "hello?")
	assert.True(t, pkgerrors.IsForbidden(err))

	req, err := entities.NewCollaborationRequest(f.alice.ID, f.bob.ID, "", fixedTime)
	require.NoError(t, err)
	created, err := f.store.Requests.Create(ctx, req)
	require.NoError(t, err)
	require.NoError(t, created.Respond(f.bob.ID, valueobjects.StatusAccepted, fixedTime))
	_, err = f.store.Requests.UpdateStatus(ctx, created, valueobjects.StatusPending)
	require.NoError(t, err)

	_, err = f.service.Append(ctx, f.bob.ID, f.alice.ID, "now we can talk")
	assert.NoError(t, err)
}
