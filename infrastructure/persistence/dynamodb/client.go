// Package dynamodb implements the record store on a single DynamoDB table.
//
// Layout (PK / SK):
//
//	COUNTER#<entity>     / COUNTER            atomic id counters
//	USER#<id>            / USER               accounts
//	EMAIL#<email>        / EMAIL              email uniqueness guard
//	USER#<id>            / PROFILE            profiles
//	REQUEST#<id>         / REQUEST            collaboration requests
//	CONV#<low>#<high>    / MSG#<nanos>#<id>   messages, sorted by (CreatedAt, ID)
//
//	CONN#<connectionId> / CONN               live channel connections
//
// GSI1 is overloaded: INBOX#<toUserId> lists a user's inbound requests by
// creation time, USERS / ROLE#<role>#<id> is the user directory and
// CONNECTIONS / USER#<userId>#<connectionId> is the connection registry.
// GSI2 (PAIR#<low>#<high>) finds the requests between two users.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// Index names
const (
	InboxIndex      = "GSI1"
	DirectoryIndex  = "GSI1"
	ConnectionIndex = "GSI1"
	PairIndex       = "GSI2"
)

// Client is the subset of the DynamoDB API the repositories use.
// *dynamodb.Client satisfies it.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

func stringKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func userPK(id int64) string { return fmt.Sprintf("USER#%d", id) }
func emailPK(e string) string { return "EMAIL#" + e }
func requestPK(id int64) string { return fmt.Sprintf("REQUEST#%d", id) }
func inboxPK(id int64) string { return fmt.Sprintf("INBOX#%d", id) }

// sortableKey orders by time first and id second when compared as strings
func sortableKey(prefix string, t time.Time, id int64) string {
	return fmt.Sprintf("%s#%020d#%020d", prefix, t.UnixNano(), id)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// isConditionalCheckFailed reports whether err is a failed condition, either
// on a single write or inside a cancelled transaction.
func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}

	var cancelled *types.TransactionCanceledException
	if errors.As(err, &cancelled) {
		for _, reason := range cancelled.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return true
			}
		}
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "ConditionalCheckFailedException"
	}
	return false
}
