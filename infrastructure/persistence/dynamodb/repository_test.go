package dynamodb

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockClient is a mock implementation of Client
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *MockClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *MockClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}

func (m *MockClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func (m *MockClient) Query(ctx context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.QueryOutput)
	return out, args.Error(1)
}

func (m *MockClient) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.TransactWriteItemsOutput)
	return out, args.Error(1)
}

func (m *MockClient) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.DescribeTableOutput)
	return out, args.Error(1)
}

func (m *MockClient) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.CreateTableOutput)
	return out, args.Error(1)
}

var testTime = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

func isCounterUpdate(entity string) interface{} {
	return mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		pk, ok := in.Key["PK"].(*types.AttributeValueMemberS)
		return ok && pk.Value == "COUNTER#"+entity
	})
}

func counterOutput(value string) *dynamodb.UpdateItemOutput {
	return &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
		"Value": &types.AttributeValueMemberN{Value: value},
	}}
}

func TestIsConditionalCheckFailed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "typed exception", err: &types.ConditionalCheckFailedException{Message: aws.String("failed")}, want: true},
		{name: "wrapped exception", err: errors.Join(errors.New("put"), &types.ConditionalCheckFailedException{}), want: true},
		{
			name: "cancelled transaction",
			err: &types.TransactionCanceledException{CancellationReasons: []types.CancellationReason{
				{Code: aws.String("None")}, {Code: aws.String("ConditionalCheckFailed")},
			}},
			want: true,
		},
		{
			name: "transaction cancelled for another reason",
			err:  &types.TransactionCanceledException{CancellationReasons: []types.CancellationReason{{Code: aws.String("ThrottlingError")}}},
			want: false,
		},
		{name: "generic api error", err: &smithy.GenericAPIError{Code: "ConditionalCheckFailedException"}, want: true},
		{name: "other error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isConditionalCheckFailed(tt.err))
		})
	}
}

func TestSortableKey_OrdersByTimeThenID(t *testing.T) {
	keys := []string{
		sortableKey("MSG", testTime.Add(time.Second), 1),
		sortableKey("MSG", testTime, 10),
		sortableKey("MSG", testTime, 9),
	}

	sort.Strings(keys)

	assert.Equal(t, []string{
		sortableKey("MSG", testTime, 9),
		sortableKey("MSG", testTime, 10),
		sortableKey("MSG", testTime.Add(time.Second), 1),
	}, keys)
}

func TestMessageRepository_CreateUsesConversationPartition(t *testing.T) {
	// Arrange
	client := &MockClient{}
	client.On("UpdateItem", mock.Anything, isCounterUpdate("MESSAGE")).Return(counterOutput("3"), nil)

	var put *dynamodb.PutItemInput
	client.On("PutItem", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { put = args.Get(1).(*dynamodb.PutItemInput) }).
		Return(&dynamodb.PutItemOutput{}, nil)

	repo := NewMessageRepository(client, "table", nil, zap.NewNop())
	content, err := valueobjects.NewMessageContent("hello")
	require.NoError(t, err)
	msg, err := entities.NewMessage(7, 2, content, testTime)
	require.NoError(t, err)

	// Act
	created, err := repo.Create(context.Background(), msg)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, valueobjects.MessageID(3), created.ID)
	require.NotNil(t, put)

	var item messageItem
	require.NoError(t, attributevalue.UnmarshalMap(put.Item, &item))
	assert.Equal(t, "CONV#2#7", item.PK)
	assert.Equal(t, sortableKey("MSG", testTime, 3), item.SK)
	assert.Equal(t, "hello", item.Content)
	client.AssertExpectations(t)
}

func TestCollaborationRequestRepository_UpdateStatus(t *testing.T) {
	stored := &entities.CollaborationRequest{
		ID: 7, FromUserID: 1, ToUserID: 2, Status: valueobjects.StatusAccepted,
		CreatedAt: testTime, UpdatedAt: testTime,
	}
	storedAV, err := attributevalue.MarshalMap(newRequestItem(stored))
	require.NoError(t, err)

	decline := stored.Clone()
	decline.Status = valueobjects.StatusDeclined

	tests := []struct {
		name   string
		output *dynamodb.UpdateItemOutput
		err    error
		check  func(t *testing.T, got *entities.CollaborationRequest, err error)
	}{
		{
			name:   "lost race reports the stored status",
			output: nil,
			err:    &types.ConditionalCheckFailedException{Item: storedAV},
			check: func(t *testing.T, got *entities.CollaborationRequest, err error) {
				assert.Nil(t, got)
				require.True(t, pkgerrors.IsInvalidStateTransition(err))
				assert.Equal(t, "accepted", pkgerrors.GetAppError(err).Details["from"])
			},
		},
		{
			name:   "unknown id",
			output: nil,
			err:    &types.ConditionalCheckFailedException{},
			check: func(t *testing.T, got *entities.CollaborationRequest, err error) {
				assert.True(t, pkgerrors.IsNotFound(err))
			},
		},
		{
			name:   "success returns the new image",
			output: &dynamodb.UpdateItemOutput{Attributes: storedAV},
			check: func(t *testing.T, got *entities.CollaborationRequest, err error) {
				require.NoError(t, err)
				assert.Equal(t, valueobjects.RequestID(7), got.ID)
				assert.Equal(t, testTime, got.CreatedAt)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockClient{}
			client.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
				return in.ConditionExpression != nil &&
					in.ReturnValuesOnConditionCheckFailure == types.ReturnValuesOnConditionCheckFailureAllOld
			})).Return(tt.output, tt.err)
			repo := NewCollaborationRequestRepository(client, "table", nil, zap.NewNop())

			got, err := repo.UpdateStatus(context.Background(), decline, valueobjects.StatusPending)

			tt.check(t, got, err)
		})
	}
}

func TestCollaborationRequestRepository_GetByIDNotFound(t *testing.T) {
	client := &MockClient{}
	client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)
	repo := NewCollaborationRequestRepository(client, "table", nil, zap.NewNop())

	_, err := repo.GetByID(context.Background(), 99)

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	client := &MockClient{}
	client.On("UpdateItem", mock.Anything, isCounterUpdate("USER")).Return(counterOutput("2"), nil)
	client.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
		return len(in.TransactItems) == 2
	})).Return(nil, &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{{Code: aws.String("ConditionalCheckFailed")}, {Code: aws.String("None")}},
	})
	repo := NewUserRepository(client, "table", nil, zap.NewNop())

	user, err := entities.NewUser("Sarah@GreenTech.com", "hash", "Sarah", "Chen", valueobjects.RoleEntrepreneur, "", testTime)
	require.NoError(t, err)

	_, err = repo.Create(context.Background(), user)

	assert.True(t, pkgerrors.IsConflict(err))
}

func TestUserRepository_GetByEmailFollowsGuard(t *testing.T) {
	client := &MockClient{}
	guard, err := attributevalue.MarshalMap(emailItem{PK: emailPK("alex@vc.com"), SK: "EMAIL", UserID: 4})
	require.NoError(t, err)
	user, err := attributevalue.MarshalMap(userItem{
		PK: userPK(4), SK: "USER", UserID: 4, Email: "alex@vc.com", Role: "investor",
		FirstName: "Alex", LastName: "Thompson", CreatedAt: formatTime(testTime),
	})
	require.NoError(t, err)

	client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return in.Key["PK"].(*types.AttributeValueMemberS).Value == "EMAIL#alex@vc.com"
	})).Return(&dynamodb.GetItemOutput{Item: guard}, nil)
	client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return in.Key["PK"].(*types.AttributeValueMemberS).Value == "USER#4"
	})).Return(&dynamodb.GetItemOutput{Item: user}, nil)
	repo := NewUserRepository(client, "table", nil, zap.NewNop())

	got, err := repo.GetByEmail(context.Background(), " ALEX@vc.com ")

	require.NoError(t, err)
	assert.Equal(t, valueobjects.UserID(4), got.ID)
	assert.Equal(t, valueobjects.RoleInvestor, got.Role)
	assert.Equal(t, testTime, got.CreatedAt)
}

func TestEnsureTable_SkipsExistingTable(t *testing.T) {
	client := &MockClient{}
	client.On("DescribeTable", mock.Anything, mock.Anything).Return(&dynamodb.DescribeTableOutput{}, nil)

	err := EnsureTable(context.Background(), client, "table", zap.NewNop())

	require.NoError(t, err)
	client.AssertNotCalled(t, "CreateTable", mock.Anything, mock.Anything)
}

func TestConnectionRepository_RegisterIndexesByUser(t *testing.T) {
	client := &MockClient{}
	var saved connectionItem
	client.On("PutItem", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		in := args.Get(1).(*dynamodb.PutItemInput)
		require.NoError(t, attributevalue.UnmarshalMap(in.Item, &saved))
	}).Return(&dynamodb.PutItemOutput{}, nil)
	repo := NewConnectionRepository(client, "table", nil, zap.NewNop())

	conn, err := entities.NewConnection("abc=", 7, testTime, 2*time.Hour)
	require.NoError(t, err)

	require.NoError(t, repo.Register(context.Background(), conn))

	assert.Equal(t, "CONN#abc=", saved.PK)
	assert.Equal(t, "CONNECTIONS", saved.GSI1PK)
	assert.Equal(t, "USER#00000000000000000007#abc=", saved.GSI1SK)
	assert.Equal(t, testTime.Add(2*time.Hour).Unix(), saved.ExpireAt)
}

func TestConnectionRepository_ListSkipsExpired(t *testing.T) {
	client := &MockClient{}
	items := make([]map[string]types.AttributeValue, 0, 2)
	for _, item := range []connectionItem{
		{PK: "CONN#live", SK: "CONN", ConnectionID: "live", UserID: 1, ExpireAt: testTime.Add(time.Hour).Unix()},
		{PK: "CONN#old", SK: "CONN", ConnectionID: "old", UserID: 2, ExpireAt: testTime.Add(-time.Hour).Unix()},
	} {
		av, err := attributevalue.MarshalMap(item)
		require.NoError(t, err)
		items = append(items, av)
	}
	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return aws.ToString(in.IndexName) == ConnectionIndex
	})).Return(&dynamodb.QueryOutput{Items: items}, nil)
	repo := NewConnectionRepository(client, "table", nil, zap.NewNop())
	repo.now = func() time.Time { return testTime }

	conns, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "live", conns[0].ID)
	assert.Equal(t, valueobjects.UserID(1), conns[0].UserID)
}

func TestConnectionRepository_DeregisterDeletesItem(t *testing.T) {
	client := &MockClient{}
	client.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		return in.Key["PK"].(*types.AttributeValueMemberS).Value == "CONN#abc="
	})).Return(&dynamodb.DeleteItemOutput{}, nil)
	repo := NewConnectionRepository(client, "table", nil, zap.NewNop())

	err := repo.Deregister(context.Background(), "abc=")

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestUserRepository_ListQueriesDirectoryByRole(t *testing.T) {
	client := &MockClient{}
	var items []map[string]types.AttributeValue
	for _, item := range []userItem{
		{PK: userPK(3), SK: "USER", UserID: 3, Email: "michael@ventures.com", Role: "investor", CreatedAt: formatTime(testTime)},
		{PK: userPK(1), SK: "USER", UserID: 1, Email: "alex@vc.com", Role: "investor", CreatedAt: formatTime(testTime)},
	} {
		av, err := attributevalue.MarshalMap(item)
		require.NoError(t, err)
		items = append(items, av)
	}
	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		if aws.ToString(in.IndexName) != DirectoryIndex {
			return false
		}
		for _, v := range in.ExpressionAttributeValues {
			if s, ok := v.(*types.AttributeValueMemberS); ok && s.Value == "ROLE#investor#" {
				return true
			}
		}
		return false
	})).Return(&dynamodb.QueryOutput{Items: items}, nil)
	repo := NewUserRepository(client, "table", nil, zap.NewNop())

	users, err := repo.List(context.Background(), valueobjects.RoleInvestor)

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, valueobjects.UserID(1), users[0].ID)
	assert.Equal(t, valueobjects.UserID(3), users[1].ID)
}
