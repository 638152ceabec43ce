package evaluator

import "reflect"

// maxCompareDepth bounds recursion; cyclic or deeper structures compare unequal.
const maxCompareDepth = 64

// Equal reports whether two decoded values are deeply equal. Numbers compare by value across
// Go numeric kinds, mappings ignore key order, sequences compare element-wise.
func Equal(actual, expected any) bool {
	return equalAt(actual, expected, 0)
}

func equalAt(a, b any, depth int) bool {
	if depth > maxCompareDepth {
		return false
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch ra.Kind() {
	case reflect.Map:
		if rb.Kind() != reflect.Map || ra.Len() != rb.Len() {
			return false
		}
		if ra.Type().Key().Kind() != reflect.String || rb.Type().Key().Kind() != reflect.String {
			return false
		}
		iter := ra.MapRange()
		for iter.Next() {
			other := rb.MapIndex(reflect.ValueOf(iter.Key().String()).Convert(rb.Type().Key()))
			if !other.IsValid() {
				return false
			}
			if !equalAt(iter.Value().Interface(), other.Interface(), depth+1) {
				return false
			}
		}
		return true
	case reflect.Slice, reflect.Array:
		if rb.Kind() != reflect.Slice && rb.Kind() != reflect.Array {
			return false
		}
		if ra.Len() != rb.Len() {
			return false
		}
		for i := 0; i < ra.Len(); i++ {
			if !equalAt(ra.Index(i).Interface(), rb.Index(i).Interface(), depth+1) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
