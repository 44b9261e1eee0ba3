package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"venturelink/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Store groups the DynamoDB repositories that share one table
type Store struct {
	Users    *UserRepository
	Profiles *ProfileRepository
	Requests *CollaborationRequestRepository
	Messages *MessageRepository

	Connections *ConnectionRepository
}

// NewStore creates repositories over tableName
func NewStore(client Client, tableName string, metrics *observability.Collector, logger *zap.Logger) *Store {
	return &Store{
		Users:    NewUserRepository(client, tableName, metrics, logger),
		Profiles: NewProfileRepository(client, tableName, metrics, logger),
		Requests: NewCollaborationRequestRepository(client, tableName, metrics, logger),
		Messages: NewMessageRepository(client, tableName, metrics, logger),

		Connections: NewConnectionRepository(client, tableName, metrics, logger),
	}
}

// EnsureTable creates the table and its indexes when it does not exist yet.
// It is meant for local endpoints; deployed tables are provisioned elsewhere.
func EnsureTable(ctx context.Context, client Client, tableName string, logger *zap.Logger) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to describe table %s: %w", tableName, err)
	}

	attr := func(name string) types.AttributeDefinition {
		return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
	}
	keys := func(pk, sk string) []types.KeySchemaElement {
		return []types.KeySchemaElement{
			{AttributeName: aws.String(pk), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(sk), KeyType: types.KeyTypeRange},
		}
	}
	index := func(name, pk, sk string) types.GlobalSecondaryIndex {
		return types.GlobalSecondaryIndex{
			IndexName:  aws.String(name),
			KeySchema:  keys(pk, sk),
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr("PK"), attr("SK"), attr("GSI1PK"), attr("GSI1SK"), attr("GSI2PK"), attr("GSI2SK"),
		},
		KeySchema: keys("PK", "SK"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			index(InboxIndex, "GSI1PK", "GSI1SK"),
			index(PairIndex, "GSI2PK", "GSI2SK"),
		},
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return nil
		}
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	logger.Info("Created DynamoDB table", zap.String("table", tableName))
	return nil
}
