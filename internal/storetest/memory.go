// Package storetest provides an in-memory store.Client for tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Operation names recorded in Call.Op.
const (
	OpGet      = "GetItem"
	OpPut      = "PutItem"
	OpDelete   = "DeleteItem"
	OpScan     = "Scan"
	OpDescribe = "DescribeTable"
	OpCreate   = "CreateTable"
)

// Call records one request made against the Memory client.
type Call struct {
	Op    string
	Table string

	// Key is the hash key value for item operations.
	Key string

	// StartKey is the ExclusiveStartKey value for Scan pages ("" on the first page).
	StartKey string
}

type table struct {
	keyAttr string
	items   map[string]map[string]types.AttributeValue
}

type failure struct {
	err   error
	after int // calls of the op to let through before failing
}

// Memory is a goroutine-safe fake DynamoDB holding items in maps.
// Scans return items ordered by key, PageSize at a time.
type Memory struct {
	// PageSize is the number of items per Scan page (0 = everything in one page).
	PageSize int

	mu       sync.Mutex
	tables   map[string]*table
	calls    []Call
	failures map[string]*failure
}

// NewMemory returns an empty fake with no tables.
func NewMemory() *Memory {
	return &Memory{
		tables:   make(map[string]*table),
		failures: make(map[string]*failure),
	}
}

// AddTable creates a table without recording a call.
func (m *Memory) AddTable(name, keyAttr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[name]; !ok {
		m.tables[name] = &table{keyAttr: keyAttr, items: make(map[string]map[string]types.AttributeValue)}
	}
}

// Seed stores an item directly without recording a call.
func (m *Memory) Seed(name string, item map[string]types.AttributeValue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tables[name]
	t.items[stringAttr(item, t.keyAttr)] = copyItem(item)
}

// Item returns the stored item for key, or nil.
func (m *Memory) Item(name, key string) map[string]types.AttributeValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[name]
	if !ok {
		return nil
	}
	return copyItem(t.items[key])
}

// Len returns the number of items in a table.
func (m *Memory) Len(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tables[name]; ok {
		return len(t.items)
	}
	return 0
}

// Fail makes every call of op fail with err.
func (m *Memory) Fail(op string, err error) {
	m.FailAfter(op, 0, err)
}

// FailAfter lets n calls of op succeed, then fails the rest with err.
func (m *Memory) FailAfter(op string, n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = &failure{err: err, after: n}
}

// Recover removes every injected failure.
func (m *Memory) Recover() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = make(map[string]*failure)
}

// Calls returns a copy of the recorded calls.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Count returns how many calls of op were made.
func (m *Memory) Count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset clears the call log.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// record logs the call and returns the injected failure, if any. Caller holds mu.
func (m *Memory) record(c Call) error {
	m.calls = append(m.calls, c)
	f, ok := m.failures[c.Op]
	if !ok {
		return nil
	}
	if f.after > 0 {
		f.after--
		return nil
	}
	return f.err
}

func (m *Memory) lookup(name *string) (*table, error) {
	t, ok := m.tables[aws.ToString(name)]
	if !ok {
		return nil, &types.ResourceNotFoundException{
			Message: aws.String(fmt.Sprintf("table %s not found", aws.ToString(name))),
		}
	}
	return t, nil
}

func (m *Memory) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.lookup(params.TableName)
	key := ""
	if t != nil {
		key = stringAttr(params.Key, t.keyAttr)
	}
	if ferr := m.record(Call{Op: OpGet, Table: aws.ToString(params.TableName), Key: key}); ferr != nil {
		return nil, ferr
	}
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: copyItem(t.items[key])}, nil
}

func (m *Memory) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.lookup(params.TableName)
	key := ""
	if t != nil {
		key = stringAttr(params.Item, t.keyAttr)
	}
	if ferr := m.record(Call{Op: OpPut, Table: aws.ToString(params.TableName), Key: key}); ferr != nil {
		return nil, ferr
	}
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, fmt.Errorf("ValidationException: missing key attribute %s", t.keyAttr)
	}
	t.items[key] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (m *Memory) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.lookup(params.TableName)
	key := ""
	if t != nil {
		key = stringAttr(params.Key, t.keyAttr)
	}
	if ferr := m.record(Call{Op: OpDelete, Table: aws.ToString(params.TableName), Key: key}); ferr != nil {
		return nil, ferr
	}
	if err != nil {
		return nil, err
	}
	delete(t.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *Memory) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.lookup(params.TableName)
	start := ""
	if t != nil {
		start = stringAttr(params.ExclusiveStartKey, t.keyAttr)
	}
	if ferr := m.record(Call{Op: OpScan, Table: aws.ToString(params.TableName), StartKey: start}); ferr != nil {
		return nil, ferr
	}
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(t.items))
	for k := range t.items {
		if start == "" || k > start {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	limit := m.PageSize
	if params.Limit != nil && (limit == 0 || int(*params.Limit) < limit) {
		limit = int(*params.Limit)
	}

	out := &dynamodb.ScanOutput{}
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			t.keyAttr: &types.AttributeValueMemberS{Value: keys[len(keys)-1]},
		}
	}
	for _, k := range keys {
		out.Items = append(out.Items, copyItem(t.items[k]))
	}
	out.Count = int32(len(out.Items))
	out.ScannedCount = out.Count
	return out, nil
}

func (m *Memory) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ferr := m.record(Call{Op: OpDescribe, Table: aws.ToString(params.TableName)}); ferr != nil {
		return nil, ferr
	}
	t, err := m.lookup(params.TableName)
	if err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   params.TableName,
			TableStatus: types.TableStatusActive,
			ItemCount:   aws.Int64(int64(len(t.items))),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(t.keyAttr), KeyType: types.KeyTypeHash},
			},
		},
	}, nil
}

func (m *Memory) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := aws.ToString(params.TableName)
	if ferr := m.record(Call{Op: OpCreate, Table: name}); ferr != nil {
		return nil, ferr
	}
	if _, ok := m.tables[name]; ok {
		return nil, &types.ResourceInUseException{Message: aws.String("table already exists: " + name)}
	}

	var keyAttr string
	for _, ks := range params.KeySchema {
		if ks.KeyType == types.KeyTypeHash {
			keyAttr = aws.ToString(ks.AttributeName)
		}
	}
	m.tables[name] = &table{keyAttr: keyAttr, items: make(map[string]map[string]types.AttributeValue)}
	return &dynamodb.CreateTableOutput{
		TableDescription: &types.TableDescription{
			TableName:   params.TableName,
			TableStatus: types.TableStatusActive,
			KeySchema:   params.KeySchema,
		},
	}, nil
}

func stringAttr(item map[string]types.AttributeValue, attr string) string {
	if v, ok := item[attr].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
