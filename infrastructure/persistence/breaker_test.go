package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockMessageRepository is a mock implementation of ports.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *entities.Message) (*entities.Message, error) {
	args := m.Called(ctx, msg)
	out, _ := args.Get(0).(*entities.Message)
	return out, args.Error(1)
}

func (m *MockMessageRepository) ListConversation(ctx context.Context, key valueobjects.ConversationKey) ([]*entities.Message, error) {
	args := m.Called(ctx, key)
	out, _ := args.Get(0).([]*entities.Message)
	return out, args.Error(1)
}

func testBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "messages",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      2,
	}
}

func TestMessageRepositoryBreaker_PassesThrough(t *testing.T) {
	repo := &MockMessageRepository{}
	key := valueobjects.NewConversationKey(1, 2)
	want := []*entities.Message{{ID: 1, FromUserID: 1, ToUserID: 2, Content: "hi"}}
	repo.On("ListConversation", mock.Anything, key).Return(want, nil)
	breaker := NewMessageRepositoryBreaker(repo, testBreakerConfig(), zap.NewNop())

	got, err := breaker.ListConversation(context.Background(), key)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMessageRepositoryBreaker_OpensOnStoreFailures(t *testing.T) {
	// Arrange
	repo := &MockMessageRepository{}
	key := valueobjects.NewConversationKey(1, 2)
	repo.On("ListConversation", mock.Anything, key).
		Return(nil, pkgerrors.NewDatabaseError("message.list", errors.New("timeout")))
	breaker := NewMessageRepositoryBreaker(repo, testBreakerConfig(), zap.NewNop())

	// Act
	for i := 0; i < 2; i++ {
		_, err := breaker.ListConversation(context.Background(), key)
		require.Error(t, err)
	}
	_, err := breaker.ListConversation(context.Background(), key)

	// Assert
	assert.Equal(t, gobreaker.StateOpen, breaker.State())
	assert.True(t, pkgerrors.IsType(breaker.Ready(), pkgerrors.ErrorTypeUnavailable))
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.ErrorTypeUnavailable, appErr.Type)
	assert.Equal(t, 503, appErr.HTTPStatus)
	repo.AssertNumberOfCalls(t, "ListConversation", 2)
}

func TestMessageRepositoryBreaker_ClientErrorsKeepCircuitClosed(t *testing.T) {
	repo := &MockMessageRepository{}
	repo.On("Create", mock.Anything, mock.Anything).Return(nil, pkgerrors.NewValidationError("bad"))
	breaker := NewMessageRepositoryBreaker(repo, testBreakerConfig(), zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := breaker.Create(context.Background(), &entities.Message{})
		assert.True(t, pkgerrors.IsValidation(err))
	}

	assert.Equal(t, gobreaker.StateClosed, breaker.State())
	assert.NoError(t, breaker.Ready())
}
