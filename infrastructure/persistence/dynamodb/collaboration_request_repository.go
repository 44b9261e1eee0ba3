package dynamodb

import (
	"context"
	"errors"
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
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// CollaborationRequestRepository implements ports.CollaborationRequestRepository on DynamoDB
type CollaborationRequestRepository struct {
	client    Client
	tableName string
	ids       *idSequence
	metrics   *observability.Collector
	logger    *zap.Logger
}

var _ ports.CollaborationRequestRepository = (*CollaborationRequestRepository)(nil)

// NewCollaborationRequestRepository creates a new CollaborationRequestRepository
func NewCollaborationRequestRepository(client Client, tableName string, metrics *observability.Collector, logger *zap.Logger) *CollaborationRequestRepository {
	return &CollaborationRequestRepository{
		client:    client,
		tableName: tableName,
		ids:       newIDSequence(client, tableName, "REQUEST"),
		metrics:   metrics,
		logger:    logger,
	}
}

type requestItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	RequestID  int64  `dynamodbav:"RequestID"`
	FromUserID int64  `dynamodbav:"FromUserID"`
	ToUserID   int64  `dynamodbav:"ToUserID"`
	Message    string `dynamodbav:"Message,omitempty"`
	Status     string `dynamodbav:"Status"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`

	// GSI1: inbound requests of the recipient, by creation time
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`

	// GSI2: requests between an unordered pair of users
	GSI2PK string `dynamodbav:"GSI2PK"`
	GSI2SK string `dynamodbav:"GSI2SK"`
}

func newRequestItem(req *entities.CollaborationRequest) requestItem {
	id := req.ID.Int64()
	return requestItem{
		PK:         requestPK(id),
		SK:         "REQUEST",
		EntityType: "REQUEST",
		RequestID:  id,
		FromUserID: req.FromUserID.Int64(),
		ToUserID:   req.ToUserID.Int64(),
		Message:    req.Message,
		Status:     req.Status.String(),
		CreatedAt:  formatTime(req.CreatedAt),
		UpdatedAt:  formatTime(req.UpdatedAt),
		GSI1PK:     inboxPK(req.ToUserID.Int64()),
		GSI1SK:     sortableKey("REQ", req.CreatedAt, id),
		GSI2PK:     "PAIR#" + valueobjects.NewConversationKey(req.FromUserID, req.ToUserID).String(),
		GSI2SK:     requestPK(id),
	}
}

func (i requestItem) toEntity() *entities.CollaborationRequest {
	return &entities.CollaborationRequest{
		ID:         valueobjects.RequestID(i.RequestID),
		FromUserID: valueobjects.UserID(i.FromUserID),
		ToUserID:   valueobjects.UserID(i.ToUserID),
		Message:    i.Message,
		Status:     valueobjects.RequestStatus(i.Status),
		CreatedAt:  parseTime(i.CreatedAt),
		UpdatedAt:  parseTime(i.UpdatedAt),
	}
}

// Create stores a new request
func (r *CollaborationRequestRepository) Create(ctx context.Context, req *entities.CollaborationRequest) (created *entities.CollaborationRequest, err error) {
	start := time.Now()
	defer func() { r.metrics.RecordStoreOperation("request.create", err, time.Since(start)) }()

	if req == nil {
		return nil, pkgerrors.NewValidationError("collaboration request is required")
	}

	id, err := r.ids.next(ctx)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("request.create", err)
	}

	stored := req.Clone()
	stored.ID = valueobjects.RequestID(id)

	av, err := attributevalue.MarshalMap(newRequestItem(stored))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collaboration request: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		r.logger.Error("Failed to save collaboration request", zap.Error(err), zap.Int64("requestID", id))
		return nil, pkgerrors.NewDatabaseError("request.create", err)
	}
	return stored, nil
}

// GetByID retrieves a request by id
func (r *CollaborationRequestRepository) GetByID(ctx context.Context, id valueobjects.RequestID) (*entities.CollaborationRequest, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       stringKey(requestPK(id.Int64()), "REQUEST"),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("request.get", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("collaboration request")
	}

	var item requestItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal collaboration request: %w", err)
	}
	return item.toEntity(), nil
}

// ListByRecipient queries the inbox index newest first
func (r *CollaborationRequestRepository) ListByRecipient(ctx context.Context, userID valueobjects.UserID) ([]*entities.CollaborationRequest, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(inboxPK(userID.Int64())))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build inbox query: %w", err)
	}

	return r.query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(InboxIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	})
}

// UpdateStatus writes the new status only if the stored one still equals expected.
// The failed condition returns the old item, which tells a lost race apart
// from an unknown id.
func (r *CollaborationRequestRepository) UpdateStatus(ctx context.Context, req *entities.CollaborationRequest, expected valueobjects.RequestStatus) (updated *entities.CollaborationRequest, err error) {
	start := time.Now()
	defer func() { r.metrics.RecordStoreOperation("request.update_status", err, time.Since(start)) }()

	if req == nil {
		return nil, pkgerrors.NewValidationError("collaboration request is required")
	}

	cond := expression.Name("PK").AttributeExists().
		And(expression.Name("Status").Equal(expression.Value(expected.String())))
	update := expression.Set(expression.Name("Status"), expression.Value(req.Status.String())).
		Set(expression.Name("UpdatedAt"), expression.Value(formatTime(req.UpdatedAt)))
	expr, err := expression.NewBuilder().WithCondition(cond).WithUpdate(update).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build status update: %w", err)
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(r.tableName),
		Key:                                 stringKey(requestPK(req.ID.Int64()), "REQUEST"),
		ConditionExpression:                 expr.Condition(),
		UpdateExpression:                    expr.Update(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			if len(ccf.Item) == 0 {
				return nil, pkgerrors.NewNotFoundError("collaboration request")
			}
			var current requestItem
			if uerr := attributevalue.UnmarshalMap(ccf.Item, &current); uerr != nil {
				return nil, fmt.Errorf("failed to unmarshal collaboration request: %w", uerr)
			}
			return nil, pkgerrors.NewInvalidStateTransitionError(current.Status, req.Status.String())
		}
		return nil, pkgerrors.NewDatabaseError("request.update_status", err)
	}

	var item requestItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal collaboration request: %w", err)
	}
	return item.toEntity(), nil
}

// HasAccepted queries the pair index for an accepted request
func (r *CollaborationRequestRepository) HasAccepted(ctx context.Context, a, b valueobjects.UserID) (bool, error) {
	keyCond := expression.Key("GSI2PK").Equal(expression.Value("PAIR#" + valueobjects.NewConversationKey(a, b).String()))
	filter := expression.Name("Status").Equal(expression.Value(valueobjects.StatusAccepted.String()))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return false, fmt.Errorf("failed to build pair query: %w", err)
	}

	requests, err := r.query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(PairIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return false, err
	}
	return len(requests) > 0, nil
}

func (r *CollaborationRequestRepository) query(ctx context.Context, input *dynamodb.QueryInput) ([]*entities.CollaborationRequest, error) {
	var result []*entities.CollaborationRequest

	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("request.query", err)
		}

		var items []requestItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal collaboration requests: %w", err)
		}
		for _, item := range items {
			result = append(result, item.toEntity())
		}
	}
	return result, nil
}
