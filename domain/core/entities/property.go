package entities

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// PropertyKind is the declared value type of a property
type PropertyKind string

const (
	PropertyKindInt    PropertyKind = "INT"
	PropertyKindDouble PropertyKind = "DOUBLE"
	PropertyKindString PropertyKind = "STRING"
)

// PropertyValue is a single typed property value
type PropertyValue struct {
	Kind   PropertyKind
	Int    int64
	Double float64
	String string
}

// IntValue creates an INT property value
func IntValue(v int64) PropertyValue {
	return PropertyValue{Kind: PropertyKindInt, Int: v}
}

// DoubleValue creates a DOUBLE property value
func DoubleValue(v float64) PropertyValue {
	return PropertyValue{Kind: PropertyKindDouble, Double: v}
}

// StringValue creates a STRING property value
func StringValue(v string) PropertyValue {
	return PropertyValue{Kind: PropertyKindString, String: v}
}

// PropertyValueOf converts a plain Go value into a PropertyValue
func PropertyValueOf(v interface{}) (PropertyValue, error) {
	switch x := v.(type) {
	case int:
		return IntValue(int64(x)), nil
	case int32:
		return IntValue(int64(x)), nil
	case int64:
		return IntValue(x), nil
	case float32:
		return DoubleValue(float64(x)), nil
	case float64:
		return DoubleValue(x), nil
	case string:
		return StringValue(x), nil
	default:
		return PropertyValue{}, fmt.Errorf("unsupported property value type %T", v)
	}
}

// Display renders the value for humans
func (v PropertyValue) Display() string {
	switch v.Kind {
	case PropertyKindInt:
		return strconv.FormatInt(v.Int, 10)
	case PropertyKindDouble:
		return strconv.FormatFloat(v.Double, 'g', -1, 64)
	default:
		return v.String
	}
}

// MarshalJSON renders the bare value
func (v PropertyValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case PropertyKindInt:
		return json.Marshal(v.Int)
	case PropertyKindDouble:
		return json.Marshal(v.Double)
	default:
		return json.Marshal(v.String)
	}
}

// Properties maps property names to values
type Properties map[string]PropertyValue
