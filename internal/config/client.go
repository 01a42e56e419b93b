package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/dojo/internal/localddb"
	"github.com/jacentio/dojo/store"
)

// OpenClient builds the item store client for the configured backend. The
// returned close function releases the client's resources.
func (c Config) OpenClient(ctx context.Context) (store.Client, func() error, error) {
	switch c.Backend {
	case BackendSQLite:
		db, err := localddb.Open(c.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil

	case BackendDynamoDB:
		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(c.Region),
		}
		if c.Profile != "" {
			opts = append(opts, awsconfig.WithSharedConfigProfile(c.Profile))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if c.Endpoint != "" {
				o.BaseEndpoint = aws.String(c.Endpoint)
			}
		})
		return client, func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("%w: backend %q", ErrInvalid, c.Backend)
}
