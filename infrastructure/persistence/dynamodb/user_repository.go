package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"venturelink/application/ports"
	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"
	"venturelink/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// UserRepository implements ports.UserRepository on DynamoDB
type UserRepository struct {
	client    Client
	tableName string
	ids       *idSequence
	metrics   *observability.Collector
	logger    *zap.Logger
}

var _ ports.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository
func NewUserRepository(client Client, tableName string, metrics *observability.Collector, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		client:    client,
		tableName: tableName,
		ids:       newIDSequence(client, tableName, "USER"),
		metrics:   metrics,
		logger:    logger,
	}
}

type userItem struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	EntityType      string `dynamodbav:"EntityType"`
	UserID          int64  `dynamodbav:"UserID"`
	Email           string `dynamodbav:"Email"`
	PasswordHash    string `dynamodbav:"PasswordHash"`
	FirstName       string `dynamodbav:"FirstName"`
	LastName        string `dynamodbav:"LastName"`
	Role            string `dynamodbav:"Role"`
	ProfileImageURL string `dynamodbav:"ProfileImageURL,omitempty"`
	CreatedAt       string `dynamodbav:"CreatedAt"`

	// GSI1: the user directory, grouped by role
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`
}

const directoryPK = "USERS"

func directorySK(role valueobjects.Role, id int64) string {
	return fmt.Sprintf("ROLE#%s#%020d", role, id)
}

type emailItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     int64  `dynamodbav:"UserID"`
}

func (i userItem) toEntity() *entities.User {
	return &entities.User{
		ID:              valueobjects.UserID(i.UserID),
		Email:           i.Email,
		PasswordHash:    i.PasswordHash,
		FirstName:       i.FirstName,
		LastName:        i.LastName,
		Role:            valueobjects.Role(i.Role),
		ProfileImageURL: i.ProfileImageURL,
		CreatedAt:       parseTime(i.CreatedAt),
	}
}

// Create stores the account and its email guard in one transaction, so a
// duplicate email never leaves a half-written user behind.
func (r *UserRepository) Create(ctx context.Context, user *entities.User) (created *entities.User, err error) {
	start := time.Now()
	defer func() { r.metrics.RecordStoreOperation("user.create", err, time.Since(start)) }()

	if user == nil {
		return nil, pkgerrors.NewValidationError("user is required")
	}

	id, err := r.ids.next(ctx)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("user.create", err)
	}

	stored := user.Clone()
	stored.ID = valueobjects.UserID(id)
	stored.Email = strings.ToLower(strings.TrimSpace(stored.Email))

	userAV, err := attributevalue.MarshalMap(userItem{
		PK:              userPK(id),
		SK:              "USER",
		EntityType:      "USER",
		UserID:          id,
		Email:           stored.Email,
		PasswordHash:    stored.PasswordHash,
		FirstName:       stored.FirstName,
		LastName:        stored.LastName,
		Role:            stored.Role.String(),
		ProfileImageURL: stored.ProfileImageURL,
		CreatedAt:       formatTime(stored.CreatedAt),
		GSI1PK:          directoryPK,
		GSI1SK:          directorySK(stored.Role, id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}
	emailAV, err := attributevalue.MarshalMap(emailItem{
		PK:         emailPK(stored.Email),
		SK:         "EMAIL",
		EntityType: "EMAIL",
		UserID:     id,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email guard: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                emailAV,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                userAV,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, pkgerrors.NewConflictError("email is already registered")
		}
		r.logger.Error("Failed to save user to DynamoDB", zap.Error(err), zap.Int64("userID", id))
		return nil, pkgerrors.NewDatabaseError("user.create", err)
	}

	return stored, nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id valueobjects.UserID) (user *entities.User, err error) {
	start := time.Now()
	defer func() { r.metrics.RecordStoreOperation("user.get", err, time.Since(start)) }()

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       stringKey(userPK(id.Int64()), "USER"),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("user.get", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("user")
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return item.toEntity(), nil
}

// GetByEmail resolves the email guard and then loads the user
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       stringKey(emailPK(strings.ToLower(strings.TrimSpace(email))), "EMAIL"),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("user.get_by_email", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("user")
	}

	var guard emailItem
	if err := attributevalue.UnmarshalMap(out.Item, &guard); err != nil {
		return nil, fmt.Errorf("failed to unmarshal email guard: %w", err)
	}
	return r.GetByID(ctx, valueobjects.UserID(guard.UserID))
}

// List queries the user directory, narrowed to one role when role is set
func (r *UserRepository) List(ctx context.Context, role valueobjects.Role) (users []*entities.User, err error) {
	start := time.Now()
	defer func() { r.metrics.RecordStoreOperation("user.list", err, time.Since(start)) }()

	keyCond := expression.Key("GSI1PK").Equal(expression.Value(directoryPK))
	if role != "" {
		keyCond = keyCond.And(expression.Key("GSI1SK").BeginsWith("ROLE#" + role.String() + "#"))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build user directory query: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(DirectoryIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	users = []*entities.User{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("user.list", err)
		}

		var items []userItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal users: %w", err)
		}
		for _, item := range items {
			users = append(users, item.toEntity())
		}
	}

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}
