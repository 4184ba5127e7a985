package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Coerce converts a raw argument value to the type declared by p.
// The returned error is an ArgumentTypeError naming the parameter.
func Coerce(p Param, v any) (any, error) {
	res, err := coerce(p.Type, p.Items, v)
	if err != nil {
		return nil, newError(KindArgumentType, "", p.Name, "argument %q: %s", p.Name, err.Error()).withCause(err)
	}
	return res, nil
}

// coerce returns values of canonical types only:
// string, int64, float64, bool, map[string]any and []any
func coerce(typ, items ParamType, v any) (any, error) {
	if v == nil {
		return nil, mismatch(typ, v)
	}

	switch typ {
	case TypeString:
		return toString(v)
	case TypeInteger:
		return toInteger(v)
	case TypeNumber:
		return toNumber(v)
	case TypeBoolean:
		return toBoolean(v)
	case TypeObject:
		return toObject(items, v)
	case TypeArray:
		return toArray(items, v)
	}
	return nil, errors.Errorf("unsupported type %q", typ)
}

func toString(v any) (any, error) {
	if _, ok := v.(json.Number); ok {
		return nil, mismatch(TypeString, v)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	return nil, mismatch(TypeString, v)
}

func toInteger(v any) (any, error) {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return nil, mismatch(TypeInteger, v)
		}
		return floatToInteger(f, v)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, errors.Errorf("expected integer, got number %d out of range", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return floatToInteger(rv.Float(), v)
	case reflect.String:
		s := strings.TrimSpace(rv.String())
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
	}
	return nil, mismatch(TypeInteger, v)
}

func floatToInteger(f float64, v any) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, mismatch(TypeInteger, v)
	}
	if f < -(1<<63) || f >= 1<<63 {
		return nil, errors.Errorf("expected integer, got number %v out of range", f)
	}
	return int64(f), nil
}

func toNumber(v any) (any, error) {
	var f float64
	if n, ok := v.(json.Number); ok {
		val, err := n.Float64()
		if err != nil {
			return nil, mismatch(TypeNumber, v)
		}
		f = val
	} else {
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f = float64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			f = float64(rv.Uint())
		case reflect.Float32, reflect.Float64:
			f = rv.Float()
		case reflect.String:
			val, err := strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
			if err != nil {
				return nil, mismatch(TypeNumber, v)
			}
			f = val
		default:
			return nil, mismatch(TypeNumber, v)
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, mismatch(TypeNumber, v)
	}
	return f, nil
}

func toBoolean(v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		if _, ok := v.(json.Number); ok {
			break
		}
		s := strings.TrimSpace(rv.String())
		if strings.EqualFold(s, "true") {
			return true, nil
		}
		if strings.EqualFold(s, "false") {
			return false, nil
		}
	}
	return nil, mismatch(TypeBoolean, v)
}

func toObject(items ParamType, v any) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, mismatch(TypeObject, v)
	}

	res := make(map[string]any, rv.Len())
	keys := rv.MapKeys()
	// sorted, so the first failing key is deterministic
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		return strings.Compare(a.String(), b.String())
	})
	for _, key := range keys {
		val := rv.MapIndex(key).Interface()
		if items != "" {
			cv, err := coerce(items, "", val)
			if err != nil {
				return nil, errors.Wrapf(err, "key %q", key.String())
			}
			val = cv
		}
		res[key.String()] = cloneValue(val)
	}
	return res, nil
}

func toArray(items ParamType, v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return nil, mismatch(TypeArray, v)
	}

	res := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		val := rv.Index(i).Interface()
		if items != "" {
			cv, err := coerce(items, "", val)
			if err != nil {
				return nil, errors.Wrapf(err, "element %d", i)
			}
			val = cv
		} else if !isPrimitiveValue(val) {
			return nil, errors.Errorf("element %d: expected primitive, got %s", i, describe(val))
		}
		res[i] = val
	}
	return res, nil
}

func isPrimitiveValue(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(json.Number); ok {
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func mismatch(expected ParamType, v any) error {
	return errors.Errorf("expected %s, got %s", expected, describe(v))
}

const maxDescribedLen = 64

// describe returns JSON type name of the value, with the value itself for primitives.
func describe(v any) string {
	if v == nil {
		return "null"
	}
	if n, ok := v.(json.Number); ok {
		return "number " + n.String()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		s := rv.String()
		if len(s) > maxDescribedLen {
			s = s[:maxDescribedLen] + "..."
		}
		return fmt.Sprintf("string %q", s)
	case reflect.Bool:
		return fmt.Sprintf("boolean %v", rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprintf("number %v", v)
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	}
	return fmt.Sprintf("%T", v)
}
