// Package counter provides a monotonic sequence that is persisted inside its owning record.
package counter

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Unsigned is the set of element types a Counter can hold.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Counter is a sequence that never decreases. The zero value starts at 0.
// Operations saturate at the largest value of N instead of wrapping.
//
// Monotonicity only holds along a chain of successful writes of the owning
// record: retrying with a stale copy can persist a lower value.
type Counter[N Unsigned] struct {
	n N
}

// New returns a counter at zero.
func New[N Unsigned]() Counter[N] {
	return Counter[N]{}
}

// From returns a counter starting at n.
func From[N Unsigned](n N) Counter[N] {
	return Counter[N]{n: n}
}

// Current returns the current value.
func (c Counter[N]) Current() N {
	return c.n
}

// Increment adds one and returns the new value.
func (c *Counter[N]) Increment() N {
	return c.Add(1)
}

// IncrementReturningPrevious adds one and returns the value before the increment.
func (c *Counter[N]) IncrementReturningPrevious() N {
	prev := c.n
	c.Add(1)
	return prev
}

// Add advances the counter by n and returns the new value.
func (c *Counter[N]) Add(n N) N {
	if sum := c.n + n; sum >= c.n {
		c.n = sum
	} else {
		c.n = ^N(0)
	}
	return c.n
}

// MarshalDynamoDBAttributeValue stores the counter as {"n": value}.
func (c Counter[N]) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return attributevalue.Marshal(map[string]N{"n": c.n})
}

// UnmarshalDynamoDBAttributeValue reads the {"n": value} form.
func (c *Counter[N]) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	if _, ok := av.(*types.AttributeValueMemberNULL); ok {
		c.n = 0
		return nil
	}
	var m map[string]N
	if err := attributevalue.Unmarshal(av, &m); err != nil {
		return fmt.Errorf("counter: %w", err)
	}
	c.n = m["n"]
	return nil
}

// MarshalJSON encodes the counter as a bare number.
func (c Counter[N]) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.n)
}

// UnmarshalJSON decodes a bare number.
func (c *Counter[N]) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &c.n)
}

func (c Counter[N]) String() string {
	return fmt.Sprint(c.n)
}
