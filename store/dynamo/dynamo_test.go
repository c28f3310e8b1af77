package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/Marcanta7/dietflow/store"
)

type fakeDynamo struct {
	items map[string][]byte

	getErr  error
	putErr  error
	scanErr error

	lastPutInput *dynamodb.PutItemInput
}

func newFakeDynamo() *fakeDynamo { return &fakeDynamo{items: map[string][]byte{}} }

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	name := in.Key[attrName].(*types.AttributeValueMemberS).Value
	data, ok := f.items[name]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		attrName:    &types.AttributeValueMemberS{Value: name},
		attrPayload: &types.AttributeValueMemberB{Value: data},
	}}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	name := in.Item[attrName].(*types.AttributeValueMemberS).Value
	f.items[name] = in.Item[attrPayload].(*types.AttributeValueMemberB).Value
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	name := in.Key[attrName].(*types.AttributeValueMemberS).Value
	delete(f.items, name)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	out := &dynamodb.ScanOutput{}
	for name := range f.items {
		out.Items = append(out.Items, map[string]types.AttributeValue{
			attrName: &types.AttributeValueMemberS{Value: name},
		})
	}
	return out, nil
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "t")
	require.Error(t, err)
	_, err = New(newFakeDynamo(), "  ")
	require.Error(t, err)
}

func TestWriteReadDelete(t *testing.T) {
	db := newFakeDynamo()
	b, err := New(db, "docs")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, b.Write(ctx, "k1", []byte("payload")))
	require.NotNil(t, db.lastPutInput)
	require.Equal(t, "docs", *db.lastPutInput.TableName)

	data, err := b.Read(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), data)

	require.NoError(t, b.Delete(ctx, "k1"))
	_, err = b.Read(ctx, "k1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRead_Error(t *testing.T) {
	db := newFakeDynamo()
	db.getErr = errors.New("throttled")
	b, err := New(db, "docs")
	require.NoError(t, err)
	_, err = b.Read(context.Background(), "k1")
	require.Error(t, err)
	require.NotErrorIs(t, err, store.ErrNotFound)
}

func TestList(t *testing.T) {
	db := newFakeDynamo()
	b, err := New(db, "docs")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, b.Write(ctx, "a", []byte("1")))
	require.NoError(t, b.Write(ctx, "b", []byte("2")))
	names, err := b.List(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestBackend_SatisfiesChunkedStore(t *testing.T) {
	b, err := New(newFakeDynamo(), "docs")
	require.NoError(t, err)
	s := store.NewChunkedStore(b, func(o *store.Options) {
		// Stay under DynamoDB's 400 KB item ceiling.
		o.MaxDocSize = 380_000
	})
	require.NotNil(t, s)
}
