package types

import "reflect"

// IsValueEmpty reports whether a property value counts as "no rule".
//
// Empty values: nil, "", zero-length slices/arrays, and maps whose values are
// all empty themselves. Strings are not trimmed; " " is a value.
func IsValueEmpty(value any) bool {
	if value == nil {
		return true
	}

	switch v := value.(type) {
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		for _, inner := range v {
			if !IsValueEmpty(inner) {
				return false
			}
		}
		return true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return IsValueEmpty(rv.Elem().Interface())
	case reflect.String:
		return rv.Len() == 0
	case reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			if !IsValueEmpty(iter.Value().Interface()) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
