// Package localddb implements the DynamoDB item API on top of a SQLite file,
// for running the portal without AWS.
//
// Each table has a single string hash key. Items are stored as JSON documents
// using DynamoDB's attribute type descriptors, and scans return items in key
// order.
package localddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/dojo/store"

	_ "modernc.org/sqlite"
)

// DefaultPageSize is the number of items returned per Scan page when the
// request sets no Limit.
const DefaultPageSize = 100

var _ store.Client = (*DB)(nil)

// DB is a SQLite-backed store.Client.
type DB struct {
	mu sync.RWMutex
	db *sql.DB

	// PageSize overrides DefaultPageSize when positive.
	PageSize int
}

// Open opens (or creates) the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS ddb_tables (
		name       TEXT PRIMARY KEY,
		key_attr   TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS ddb_items (
		tbl  TEXT NOT NULL,
		pk   TEXT NOT NULL,
		item TEXT NOT NULL,
		PRIMARY KEY (tbl, pk)
	);`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

type tableInfo struct {
	keyAttr   string
	createdAt time.Time
}

// table looks up a table's key attribute. Caller holds mu.
func (d *DB) table(ctx context.Context, name *string) (tableInfo, error) {
	var info tableInfo
	var created string
	err := d.db.QueryRowContext(ctx,
		"SELECT key_attr, created_at FROM ddb_tables WHERE name = ?", aws.ToString(name),
	).Scan(&info.keyAttr, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return info, &types.ResourceNotFoundException{
			Message: aws.String("Requested resource not found: Table: " + aws.ToString(name) + " not found"),
		}
	}
	if err != nil {
		return info, fmt.Errorf("describe %q: %w", aws.ToString(name), err)
	}
	info.createdAt, _ = time.Parse(time.RFC3339Nano, created)
	return info, nil
}

func hashKey(key map[string]types.AttributeValue, attr string) (string, error) {
	s, ok := key[attr].(*types.AttributeValueMemberS)
	if !ok || s.Value == "" {
		return "", fmt.Errorf("ValidationException: missing string key attribute %q", attr)
	}
	return s.Value, nil
}

func (d *DB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, err := d.table(ctx, params.TableName)
	if err != nil {
		return nil, err
	}
	pk, err := hashKey(params.Key, t.keyAttr)
	if err != nil {
		return nil, err
	}

	var data string
	err = d.db.QueryRowContext(ctx,
		"SELECT item FROM ddb_items WHERE tbl = ? AND pk = ?", aws.ToString(params.TableName), pk,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return &dynamodb.GetItemOutput{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", pk, err)
	}

	item, err := unmarshalItem([]byte(data))
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (d *DB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(ctx, params.TableName)
	if err != nil {
		return nil, err
	}
	pk, err := hashKey(params.Item, t.keyAttr)
	if err != nil {
		return nil, err
	}
	data, err := marshalItem(params.Item)
	if err != nil {
		return nil, err
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO ddb_items (tbl, pk, item) VALUES (?, ?, ?)
		ON CONFLICT(tbl, pk) DO UPDATE SET item = excluded.item`,
		aws.ToString(params.TableName), pk, string(data),
	)
	if err != nil {
		return nil, fmt.Errorf("put %q: %w", pk, err)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (d *DB) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(ctx, params.TableName)
	if err != nil {
		return nil, err
	}
	pk, err := hashKey(params.Key, t.keyAttr)
	if err != nil {
		return nil, err
	}

	if _, err := d.db.ExecContext(ctx,
		"DELETE FROM ddb_items WHERE tbl = ? AND pk = ?", aws.ToString(params.TableName), pk,
	); err != nil {
		return nil, fmt.Errorf("delete %q: %w", pk, err)
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

// Scan returns one page of items in key order, resuming after ExclusiveStartKey.
func (d *DB) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, err := d.table(ctx, params.TableName)
	if err != nil {
		return nil, err
	}

	start := ""
	if params.ExclusiveStartKey != nil {
		if start, err = hashKey(params.ExclusiveStartKey, t.keyAttr); err != nil {
			return nil, err
		}
	}
	limit := DefaultPageSize
	if d.PageSize > 0 {
		limit = d.PageSize
	}
	if params.Limit != nil && *params.Limit > 0 {
		limit = int(*params.Limit)
	}

	rows, err := d.db.QueryContext(ctx,
		"SELECT pk, item FROM ddb_items WHERE tbl = ? AND pk > ? ORDER BY pk LIMIT ?",
		aws.ToString(params.TableName), start, limit+1,
	)
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", aws.ToString(params.TableName), err)
	}
	defer rows.Close()

	out := &dynamodb.ScanOutput{}
	var last string
	for rows.Next() {
		var pk, data string
		if err := rows.Scan(&pk, &data); err != nil {
			return nil, err
		}
		if len(out.Items) == limit {
			out.LastEvaluatedKey = map[string]types.AttributeValue{
				t.keyAttr: &types.AttributeValueMemberS{Value: last},
			}
			break
		}
		item, err := unmarshalItem([]byte(data))
		if err != nil {
			return nil, fmt.Errorf("scan %q: item %q: %w", aws.ToString(params.TableName), pk, err)
		}
		out.Items = append(out.Items, item)
		last = pk
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out.Count = int32(len(out.Items))
	out.ScannedCount = out.Count
	return out, nil
}

func (d *DB) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, err := d.table(ctx, params.TableName)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ddb_items WHERE tbl = ?", aws.ToString(params.TableName),
	).Scan(&count); err != nil {
		return nil, fmt.Errorf("count %q: %w", aws.ToString(params.TableName), err)
	}

	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:        params.TableName,
			TableStatus:      types.TableStatusActive,
			ItemCount:        aws.Int64(count),
			CreationDateTime: aws.Time(t.createdAt),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(t.keyAttr), KeyType: types.KeyTypeHash},
			},
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String(t.keyAttr), AttributeType: types.ScalarAttributeTypeS},
			},
		},
	}, nil
}

// CreateTable registers a table. Capacity settings are accepted and ignored.
func (d *DB) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	name := aws.ToString(params.TableName)
	var keyAttr string
	for _, ks := range params.KeySchema {
		if ks.KeyType == types.KeyTypeHash {
			keyAttr = aws.ToString(ks.AttributeName)
		}
	}
	if name == "" || keyAttr == "" {
		return nil, fmt.Errorf("ValidationException: table name and hash key are required")
	}

	_, err := d.table(ctx, params.TableName)
	var notFound *types.ResourceNotFoundException
	switch {
	case err == nil:
		return nil, &types.ResourceInUseException{Message: aws.String("Table already exists: " + name)}
	case !errors.As(err, &notFound):
		return nil, err
	}

	now := time.Now().UTC()
	if _, err := d.db.ExecContext(ctx,
		"INSERT INTO ddb_tables (name, key_attr, created_at) VALUES (?, ?, ?)",
		name, keyAttr, now.Format(time.RFC3339Nano),
	); err != nil {
		return nil, fmt.Errorf("create %q: %w", name, err)
	}

	return &dynamodb.CreateTableOutput{
		TableDescription: &types.TableDescription{
			TableName:        params.TableName,
			TableStatus:      types.TableStatusActive,
			CreationDateTime: aws.Time(now),
			KeySchema:        params.KeySchema,
		},
	}, nil
}
