// Package dynamo implements the store.Backend contract on a DynamoDB table.
// Each physical document is one item keyed by its name, with the encoded
// payload in a binary attribute. DynamoDB's own 400 KB item ceiling is well
// below the chunked store's default document limit, so deployments on this
// backend should lower MaxDocSize accordingly.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Marcanta7/dietflow/store"
)

const (
	attrName    = "name"
	attrPayload = "payload"
)

// dynamodbAPI is the minimal DynamoDB interface required by Backend.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Backend stores documents as DynamoDB items.
type Backend struct {
	api       dynamodbAPI
	tableName string
}

var _ store.Backend = (*Backend)(nil)

// New creates a DynamoDB-backed document store.
func New(api dynamodbAPI, tableName string) (*Backend, error) {
	if api == nil {
		return nil, errors.New("dynamo: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("dynamo: table name must not be empty")
	}
	return &Backend{api: api, tableName: tableName}, nil
}

// Write upserts the document item.
func (b *Backend) Write(ctx context.Context, name string, data []byte) error {
	_, err := b.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(b.tableName),
		Item: map[string]types.AttributeValue{
			attrName:    &types.AttributeValueMemberS{Value: name},
			attrPayload: &types.AttributeValueMemberB{Value: data},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamo: Write %q: %w", name, err)
	}
	return nil
}

// Read fetches the document item with a consistent read so a Get issued
// right after a Put observes the new version.
func (b *Backend) Read(ctx context.Context, name string) ([]byte, error) {
	out, err := b.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(b.tableName),
		Key: map[string]types.AttributeValue{
			attrName: &types.AttributeValueMemberS{Value: name},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo: Read %q: %w", name, err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, fmt.Errorf("dynamo: Read %q: %w", name, store.ErrNotFound)
	}
	payload, ok := out.Item[attrPayload].(*types.AttributeValueMemberB)
	if !ok {
		return nil, fmt.Errorf("dynamo: Read %q: malformed payload attribute", name)
	}
	return payload.Value, nil
}

// List scans the table for document names. Pagination is followed to the end;
// the session population this serves is administrative listing, not a hot
// path.
func (b *Backend) List(ctx context.Context) ([]string, error) {
	var names []string
	var startKey map[string]types.AttributeValue
	for {
		out, err := b.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:            aws.String(b.tableName),
			ProjectionExpression: aws.String(attrName),
			ExclusiveStartKey:    startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamo: List: %w", err)
		}
		for _, item := range out.Items {
			if n, ok := item[attrName].(*types.AttributeValueMemberS); ok {
				names = append(names, n.Value)
			}
		}
		if out.LastEvaluatedKey == nil {
			return names, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// Delete removes the document item, if any.
func (b *Backend) Delete(ctx context.Context, name string) error {
	_, err := b.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(b.tableName),
		Key: map[string]types.AttributeValue{
			attrName: &types.AttributeValueMemberS{Value: name},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamo: Delete %q: %w", name, err)
	}
	return nil
}
