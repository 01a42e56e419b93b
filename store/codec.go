package store

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Encode converts a record into a DynamoDB item using its dynamodbav tags.
func Encode(v any) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(v)
}

// Decode converts a DynamoDB item into a T.
func Decode[T any](item map[string]types.AttributeValue) (T, error) {
	var v T
	err := attributevalue.UnmarshalMap(item, &v)
	return v, err
}

// Clone deep-copies v by round-tripping it through the item encoding.
func Clone[T any](v T) (T, error) {
	item, err := Encode(v)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](item)
}

// Timestamp is an opaque time value stored as an RFC 3339 string in UTC.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, dropping its monotonic reading and location.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t.UTC().Round(0)}
}

// MarshalDynamoDBAttributeValue implements attributevalue.Marshaler.
func (t Timestamp) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberS{Value: t.UTC().Format(time.RFC3339Nano)}, nil
}

// UnmarshalDynamoDBAttributeValue implements attributevalue.Unmarshaler.
func (t *Timestamp) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return fmt.Errorf("timestamp: expected string attribute, got %T", av)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s.Value)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	t.Time = parsed.UTC()
	return nil
}

// stringKey builds a single-attribute string key.
func stringKey(attr, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attr: &types.AttributeValueMemberS{Value: value},
	}
}
