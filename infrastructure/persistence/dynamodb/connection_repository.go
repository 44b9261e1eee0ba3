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

// ConnectionRepository is the connection registry of the API Gateway live channel.
// Items carry an ExpireAt attribute for the table's TTL; expired items that
// DynamoDB has not reaped yet are skipped on read.
type ConnectionRepository struct {
	client    Client
	tableName string
	metrics   *observability.Collector
	logger    *zap.Logger
	now       func() time.Time
}

var _ ports.ConnectionRegistry = (*ConnectionRepository)(nil)

// NewConnectionRepository creates a new ConnectionRepository
func NewConnectionRepository(client Client, tableName string, metrics *observability.Collector, logger *zap.Logger) *ConnectionRepository {
	return &ConnectionRepository{
		client:    client,
		tableName: tableName,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

const connectionsPK = "CONNECTIONS"

type connectionItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	ConnectionID string `dynamodbav:"ConnectionID"`
	UserID       int64  `dynamodbav:"UserID"`
	ConnectedAt  string `dynamodbav:"ConnectedAt"`
	ExpireAt     int64  `dynamodbav:"ExpireAt"`

	// GSI1: every connection, grouped by user
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`
}

func connectionPK(id string) string { return "CONN#" + id }

func connectionUserPrefix(userID valueobjects.UserID) string {
	return fmt.Sprintf("USER#%020d#", userID.Int64())
}

func (i connectionItem) toEntity() *entities.Connection {
	conn := &entities.Connection{
		ID:          i.ConnectionID,
		UserID:      valueobjects.UserID(i.UserID),
		ConnectedAt: parseTime(i.ConnectedAt),
	}
	if i.ExpireAt > 0 {
		conn.ExpiresAt = time.Unix(i.ExpireAt, 0).UTC()
	}
	return conn
}

// Register stores conn, replacing an earlier registration of the same id
func (r *ConnectionRepository) Register(ctx context.Context, conn *entities.Connection) (err error) {
	start := time.Now()
	defer func() { r.metrics.RecordStoreOperation("connection.register", err, time.Since(start)) }()

	av, err := attributevalue.MarshalMap(connectionItem{
		PK:           connectionPK(conn.ID),
		SK:           "CONN",
		EntityType:   "CONNECTION",
		ConnectionID: conn.ID,
		UserID:       conn.UserID.Int64(),
		ConnectedAt:  formatTime(conn.ConnectedAt),
		ExpireAt:     conn.ExpiresAt.Unix(),
		GSI1PK:       connectionsPK,
		GSI1SK:       connectionUserPrefix(conn.UserID) + conn.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		r.logger.Error("Failed to register connection", zap.Error(err), zap.String("connectionID", conn.ID))
		return pkgerrors.NewDatabaseError("connection.register", err)
	}
	return nil
}

// Deregister deletes the connection; an unknown id is not an error
func (r *ConnectionRepository) Deregister(ctx context.Context, connectionID string) (err error) {
	start := time.Now()
	defer func() { r.metrics.RecordStoreOperation("connection.deregister", err, time.Since(start)) }()

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       stringKey(connectionPK(connectionID), "CONN"),
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("connection.deregister", err)
	}
	return nil
}

// List returns every live registration
func (r *ConnectionRepository) List(ctx context.Context) (conns []*entities.Connection, err error) {
	start := time.Now()
	defer func() { r.metrics.RecordStoreOperation("connection.list", err, time.Since(start)) }()

	items, err := r.query(ctx, expression.Key("GSI1PK").Equal(expression.Value(connectionsPK)), false)
	if err != nil {
		return nil, err
	}

	now := r.now()
	conns = make([]*entities.Connection, 0, len(items))
	for _, item := range items {
		conn := item.toEntity()
		if conn.Expired(now) {
			continue
		}
		conns = append(conns, conn)
	}
	return conns, nil
}

// CountByUser returns the number of live registrations of userID
func (r *ConnectionRepository) CountByUser(ctx context.Context, userID valueobjects.UserID) (int, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(connectionsPK)).
		And(expression.Key("GSI1SK").BeginsWith(connectionUserPrefix(userID)))

	items, err := r.query(ctx, keyCond, true)
	if err != nil {
		return 0, err
	}

	now := r.now()
	count := 0
	for _, item := range items {
		if !item.toEntity().Expired(now) {
			count++
		}
	}
	return count, nil
}

func (r *ConnectionRepository) query(ctx context.Context, keyCond expression.KeyConditionBuilder, keysOnly bool) ([]connectionItem, error) {
	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if keysOnly {
		builder = builder.WithProjection(expression.NamesList(
			expression.Name("ConnectionID"), expression.Name("UserID"), expression.Name("ExpireAt"),
		))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build connection query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(ConnectionIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if keysOnly {
		input.ProjectionExpression = expr.Projection()
	}

	var items []connectionItem
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("connection.query", err)
		}

		var pageItems []connectionItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal connections: %w", err)
		}
		items = append(items, pageItems...)
	}
	return items, nil
}
