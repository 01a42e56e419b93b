package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Store provides DynamoDB item operations keyed by a single string hash key.
//
// The client is safe for concurrent use and is not locked here; each call
// is a single round trip.
type Store struct {
	client Client
	config Config
	logger *slog.Logger
}

// New creates a new Store instance.
func New(client Client, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
		logger: config.Logger,
	}
}

// Config returns the validated configuration.
func (s *Store) Config() Config {
	return s.config
}

// TableExists reports whether the table can be described.
func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, opError("describe", table, "", err)
	}
	return true, nil
}

// CreateTable creates a table whose only key is keyAttr as a string hash key.
func (s *Store) CreateTable(ctx context.Context, table, keyAttr string) error {
	input := &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(keyAttr), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(keyAttr), KeyType: types.KeyTypeHash},
		},
		BillingMode: s.config.BillingMode,
	}
	if s.config.BillingMode != types.BillingModePayPerRequest {
		input.ProvisionedThroughput = &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(s.config.ReadCapacity),
			WriteCapacityUnits: aws.Int64(s.config.WriteCapacity),
		}
	}

	if _, err := s.client.CreateTable(ctx, input); err != nil {
		return opError("create table", table, "", err)
	}
	return nil
}

// Provision ensures a table exists, creating it when it cannot be described.
// Failures are logged, not returned: later operations against a missing
// table report their own errors.
func (s *Store) Provision(ctx context.Context, table, keyAttr string) {
	if _, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	}); err == nil {
		return
	}

	if err := s.CreateTable(ctx, table, keyAttr); err != nil {
		s.logger.Error("failed to provision table",
			"table", table,
			"keyAttribute", keyAttr,
			"error", err,
		)
		return
	}
	s.logger.Info("provisioned table", "table", table, "keyAttribute", keyAttr)
}

// scanItems reads every item of a table, one page at a time.
// Nothing is returned unless every page succeeds.
func (s *Store) scanItems(ctx context.Context, table string) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.ScanInput{
		TableName:      aws.String(table),
		ConsistentRead: aws.Bool(s.config.ConsistentReads),
	}
	if s.config.ScanLimit > 0 {
		input.Limit = aws.Int32(s.config.ScanLimit)
	}

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, opError("scan", table, "", err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// getItem fetches one item; a nil map means no item matched.
func (s *Store) getItem(ctx context.Context, table, keyAttr, key string) (map[string]types.AttributeValue, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            stringKey(keyAttr, key),
		ConsistentRead: aws.Bool(s.config.ConsistentReads),
	})
	if err != nil {
		return nil, opError("get", table, key, err)
	}
	if len(result.Item) == 0 {
		return nil, nil
	}
	return result.Item, nil
}

// putItem replaces the item unconditionally.
func (s *Store) putItem(ctx context.Context, table, key string, item map[string]types.AttributeValue) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	if err != nil {
		return opError("put", table, key, err)
	}
	return nil
}

// deleteItem removes the item; a missing item is not an error.
func (s *Store) deleteItem(ctx context.Context, table, keyAttr, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       stringKey(keyAttr, key),
	})
	if err != nil {
		return opError("delete", table, key, err)
	}
	return nil
}
