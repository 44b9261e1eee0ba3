package dynamodb

import (
	"context"
	"fmt"
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
	"go.uber.org/zap"
)

// MessageRepository implements ports.MessageRepository on DynamoDB.
// A conversation is one partition; the sort key encodes (CreatedAt, ID) so a
// forward query returns the log already ordered.
type MessageRepository struct {
	client    Client
	tableName string
	ids       *idSequence
	metrics   *observability.Collector
	logger    *zap.Logger
}

var _ ports.MessageRepository = (*MessageRepository)(nil)

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(client Client, tableName string, metrics *observability.Collector, logger *zap.Logger) *MessageRepository {
	return &MessageRepository{
		client:    client,
		tableName: tableName,
		ids:       newIDSequence(client, tableName, "MESSAGE"),
		metrics:   metrics,
		logger:    logger,
	}
}

type messageItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	MessageID  int64  `dynamodbav:"MessageID"`
	FromUserID int64  `dynamodbav:"FromUserID"`
	ToUserID   int64  `dynamodbav:"ToUserID"`
	Content    string `dynamodbav:"Content"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

func conversationPK(key valueobjects.ConversationKey) string {
	return "CONV#" + key.String()
}

func (i messageItem) toEntity() *entities.Message {
	return &entities.Message{
		ID:         valueobjects.MessageID(i.MessageID),
		FromUserID: valueobjects.UserID(i.FromUserID),
		ToUserID:   valueobjects.UserID(i.ToUserID),
		Content:    i.Content,
		CreatedAt:  parseTime(i.CreatedAt),
	}
}

// Create appends a message to its conversation partition
func (r *MessageRepository) Create(ctx context.Context, msg *entities.Message) (created *entities.Message, err error) {
	start := time.Now()
	defer func() { r.metrics.RecordStoreOperation("message.create", err, time.Since(start)) }()

	if msg == nil {
		return nil, pkgerrors.NewValidationError("message is required")
	}

	id, err := r.ids.next(ctx)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("message.create", err)
	}

	stored := msg.Clone()
	stored.ID = valueobjects.MessageID(id)

	av, err := attributevalue.MarshalMap(messageItem{
		PK:         conversationPK(stored.ConversationKey()),
		SK:         sortableKey("MSG", stored.CreatedAt, id),
		EntityType: "MESSAGE",
		MessageID:  id,
		FromUserID: stored.FromUserID.Int64(),
		ToUserID:   stored.ToUserID.Int64(),
		Content:    stored.Content,
		CreatedAt:  formatTime(stored.CreatedAt),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(SK)"),
	})
	if err != nil {
		r.logger.Error("Failed to save message", zap.Error(err), zap.Int64("messageID", id))
		return nil, pkgerrors.NewDatabaseError("message.create", err)
	}
	return stored, nil
}

// ListConversation reads the whole conversation partition in key order
func (r *MessageRepository) ListConversation(ctx context.Context, key valueobjects.ConversationKey) (messages []*entities.Message, err error) {
	start := time.Now()
	defer func() { r.metrics.RecordStoreOperation("message.list", err, time.Since(start)) }()

	keyCond := expression.Key("PK").Equal(expression.Value(conversationPK(key))).
		And(expression.Key("SK").BeginsWith("MSG#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build conversation query: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	})

	messages = []*entities.Message{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("message.list", err)
		}

		var items []messageItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
		}
		for _, item := range items {
			messages = append(messages, item.toEntity())
		}
	}

	entities.SortConversation(messages)
	return messages, nil
}
