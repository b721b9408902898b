package utils

import (
	"math"
	"reflect"
)

// CheckMissingFields reports whether record holds a usable value for every
// name in required.  A field counts as missing when it is absent or when its
// value is nil, an empty string, false, a numeric zero or NaN.  The returned
// names keep the order of required.
func CheckMissingFields(required []string, record map[string]any) (bool, []string) {
	var missing []string
	for _, name := range required {
		v, ok := record[name]
		if !ok || isEmptyValue(v) {
			missing = append(missing, name)
		}
	}
	return len(missing) == 0, missing
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f == 0 || math.IsNaN(f)
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
