package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Record is implemented by every type stored in a table.
//
// TableName and KeyAttribute are called on the zero value and must not
// depend on receiver state.
type Record interface {
	// TableName returns the DynamoDB table name for this record type (e.g., "students").
	TableName() string

	// KeyAttribute returns the hash key attribute name (e.g., "id").
	KeyAttribute() string

	// PrimaryKey returns this record's hash key value.
	PrimaryKey() string
}

// Client is the subset of *dynamodb.Client used by the store.
// The SDK client, the SQLite backend, and test doubles all satisfy it.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

// keyOf returns the table name and key attribute declared by T.
func keyOf[T Record]() (table, attr string) {
	var zero T
	return zero.TableName(), zero.KeyAttribute()
}
