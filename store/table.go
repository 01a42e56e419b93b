package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Table is a typed view of one DynamoDB table holding records of type T.
type Table[T Record] struct {
	store   *Store
	name    string
	keyAttr string
}

// NewTable binds T's table to the store.
func NewTable[T Record](s *Store) *Table[T] {
	name, attr := keyOf[T]()
	return &Table[T]{store: s, name: name, keyAttr: attr}
}

// Name returns the table name.
func (t *Table[T]) Name() string { return t.name }

// KeyAttribute returns the hash key attribute name.
func (t *Table[T]) KeyAttribute() string { return t.keyAttr }

// Provision ensures the table exists. See Store.Provision.
func (t *Table[T]) Provision(ctx context.Context) {
	t.store.Provision(ctx, t.name, t.keyAttr)
}

// ScanAll returns every record in the table in store order.
func (t *Table[T]) ScanAll(ctx context.Context) ([]T, error) {
	items, err := t.store.scanItems(ctx, t.name)
	if err != nil {
		return nil, err
	}

	records := make([]T, 0, len(items))
	for _, item := range items {
		v, err := Decode[T](item)
		if err != nil {
			return nil, encodingError("decode", t.name, itemKey(item, t.keyAttr), err)
		}
		records = append(records, v)
	}
	return records, nil
}

// Get fetches a record by key. The boolean is false when no item matched.
func (t *Table[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	if key == "" {
		return zero, false, ErrEmptyKey
	}

	item, err := t.store.getItem(ctx, t.name, t.keyAttr, key)
	if err != nil || item == nil {
		return zero, false, err
	}

	v, err := Decode[T](item)
	if err != nil {
		return zero, false, encodingError("decode", t.name, key, err)
	}
	return v, true, nil
}

// Put writes v under key, replacing whatever is stored there.
// No condition is attached: the last Put to reach the store wins.
func (t *Table[T]) Put(ctx context.Context, key string, v T) error {
	if key == "" {
		return ErrEmptyKey
	}
	if pk := v.PrimaryKey(); pk != key {
		return opError("put", t.name, key, ErrKeyMismatch)
	}

	item, err := Encode(v)
	if err != nil {
		return encodingError("encode", t.name, key, err)
	}
	item[t.keyAttr] = &types.AttributeValueMemberS{Value: key}

	return t.store.putItem(ctx, t.name, key, item)
}

// Delete removes the record stored under key. Deleting an absent key succeeds.
func (t *Table[T]) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return t.store.deleteItem(ctx, t.name, t.keyAttr, key)
}

func itemKey(item map[string]types.AttributeValue, attr string) string {
	if v, ok := item[attr].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
