package localddb

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// value is the JSON form of a types.AttributeValue, using DynamoDB's own
// type descriptors as field names. Pointers keep empty lists and maps distinct
// from absent ones.
type value struct {
	S    *string           `json:"S,omitempty"`
	N    *string           `json:"N,omitempty"`
	B    *[]byte           `json:"B,omitempty"`
	BOOL *bool             `json:"BOOL,omitempty"`
	NULL *bool             `json:"NULL,omitempty"`
	L    *[]value          `json:"L,omitempty"`
	M    *map[string]value `json:"M,omitempty"`
	SS   *[]string         `json:"SS,omitempty"`
	NS   *[]string         `json:"NS,omitempty"`
	BS   *[][]byte         `json:"BS,omitempty"`
}

func marshalItem(item map[string]types.AttributeValue) ([]byte, error) {
	m, err := toWireMap(item)
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func unmarshalItem(data []byte) (map[string]types.AttributeValue, error) {
	var m map[string]value
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return fromWireMap(m)
}

func toWireMap(item map[string]types.AttributeValue) (map[string]value, error) {
	out := make(map[string]value, len(item))
	for k, av := range item {
		v, err := toWire(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func toWire(av types.AttributeValue) (value, error) {
	switch av := av.(type) {
	case *types.AttributeValueMemberS:
		return value{S: &av.Value}, nil
	case *types.AttributeValueMemberN:
		return value{N: &av.Value}, nil
	case *types.AttributeValueMemberB:
		return value{B: &av.Value}, nil
	case *types.AttributeValueMemberBOOL:
		return value{BOOL: &av.Value}, nil
	case *types.AttributeValueMemberNULL:
		return value{NULL: &av.Value}, nil
	case *types.AttributeValueMemberL:
		list := make([]value, 0, len(av.Value))
		for i, e := range av.Value {
			v, err := toWire(e)
			if err != nil {
				return value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			list = append(list, v)
		}
		return value{L: &list}, nil
	case *types.AttributeValueMemberM:
		m, err := toWireMap(av.Value)
		if err != nil {
			return value{}, err
		}
		return value{M: &m}, nil
	case *types.AttributeValueMemberSS:
		return value{SS: &av.Value}, nil
	case *types.AttributeValueMemberNS:
		return value{NS: &av.Value}, nil
	case *types.AttributeValueMemberBS:
		return value{BS: &av.Value}, nil
	}
	return value{}, fmt.Errorf("unsupported attribute value %T", av)
}

func fromWireMap(m map[string]value) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(m))
	for k, v := range m {
		av, err := fromWire(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", k, err)
		}
		out[k] = av
	}
	return out, nil
}

func fromWire(v value) (types.AttributeValue, error) {
	switch {
	case v.S != nil:
		return &types.AttributeValueMemberS{Value: *v.S}, nil
	case v.N != nil:
		return &types.AttributeValueMemberN{Value: *v.N}, nil
	case v.B != nil:
		return &types.AttributeValueMemberB{Value: *v.B}, nil
	case v.BOOL != nil:
		return &types.AttributeValueMemberBOOL{Value: *v.BOOL}, nil
	case v.NULL != nil:
		return &types.AttributeValueMemberNULL{Value: *v.NULL}, nil
	case v.L != nil:
		list := make([]types.AttributeValue, 0, len(*v.L))
		for i, e := range *v.L {
			av, err := fromWire(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list = append(list, av)
		}
		return &types.AttributeValueMemberL{Value: list}, nil
	case v.M != nil:
		m, err := fromWireMap(*v.M)
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case v.SS != nil:
		return &types.AttributeValueMemberSS{Value: *v.SS}, nil
	case v.NS != nil:
		return &types.AttributeValueMemberNS{Value: *v.NS}, nil
	case v.BS != nil:
		return &types.AttributeValueMemberBS{Value: *v.BS}, nil
	}
	return nil, fmt.Errorf("empty attribute value")
}
