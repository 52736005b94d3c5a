package entity

import (
	"fmt"
	"math"
	"time"

	"remotehost/pkg/hostapi/common"
)

// coerce checks v against the property declaration and returns the value to
// store. nil clears the property.
func coerce(prop common.PropertyInfo, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch prop.Kind {
	case common.PropertyEnum:
		return coerceEnum(prop, v)
	case common.PropertyNavigation:
		return coerceNavigation(v)
	}
	switch prop.Type {
	case TypeString, TypeText:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case TypeInteger:
		if n, ok := asInt64(v); ok {
			return n, nil
		}
	case TypeDecimal:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		}
		if n, ok := asInt64(v); ok {
			return float64(n), nil
		}
	case TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case TypeDateTime:
		switch t := v.(type) {
		case time.Time:
			return t.UTC(), nil
		case string:
			parsed, err := time.Parse(time.RFC3339, t)
			if err == nil {
				return parsed.UTC(), nil
			}
		}
	case TypeGuid:
		var raw string
		switch g := v.(type) {
		case common.Guid:
			raw = string(g)
		case string:
			raw = g
		}
		if parsed, err := common.ParseGuid(raw); err == nil {
			return parsed, nil
		}
	default:
		return v, nil
	}
	return nil, fmt.Errorf("%w: %T is not a %s", common.ErrValidation, v, prop.Type)
}

func coerceEnum(prop common.PropertyInfo, v any) (any, error) {
	var raw string
	switch e := v.(type) {
	case string:
		raw = e
	case common.EnumPropertyValue:
		raw = e.Value
	default:
		return nil, fmt.Errorf("%w: %T is not an enum value", common.ErrValidation, v)
	}
	value, ok := prop.EnumValue(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not one of the %s values", common.ErrValidation, raw, prop.Name)
	}
	return value, nil
}

func coerceNavigation(v any) (any, error) {
	if nav, ok := v.(common.NavigationPropertyValue); ok {
		return nav, nil
	}
	if id, ok := asInt64(v); ok {
		return common.NavigationPropertyValue{Value: id}, nil
	}
	return nil, fmt.Errorf("%w: %T is not an entity reference", common.ErrValidation, v)
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) && math.Abs(n) <= 1<<53 {
			return int64(n), true
		}
	}
	return 0, false
}
