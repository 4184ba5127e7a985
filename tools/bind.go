package tools

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/schema"
)

// binding maps a parameter to the struct field it was inferred from
type binding struct {
	param string
	index int
}

func bindingsOf(t reflect.Type) []binding {
	var res []binding
	for i := 0; i < t.NumField(); i++ {
		if name, ok := schema.FieldName(t.Field(i)); ok {
			res = append(res, binding{param: name, index: i})
		}
	}
	return res
}

// bind sets the coerced arguments on a new instance of the struct type t.
func bind(tool string, t reflect.Type, bindings []binding, args Args) (any, *Error) {
	ptr := reflect.New(t)
	st := ptr.Elem()
	for _, b := range bindings {
		val, ok := args[b.param]
		if !ok || val == nil {
			continue
		}
		if err := assign(st.Field(b.index), val); err != nil {
			return nil, newError(KindArgumentType, tool, b.param, "argument %q: %s", b.param, err.Error()).withCause(err)
		}
	}
	return ptr.Interface(), nil
}

// assign sets a canonical value produced by coerce to dst.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		return nil
	}

	switch dst.Kind() {
	case reflect.Pointer:
		nv := reflect.New(dst.Type().Elem())
		if err := assign(nv.Elem(), v); err != nil {
			return err
		}
		dst.Set(nv)
		return nil
	case reflect.Interface:
		dst.Set(reflect.ValueOf(v))
		return nil
	case reflect.String:
		if s, ok := v.(string); ok {
			dst.SetString(s)
			return nil
		}
	case reflect.Bool:
		if b, ok := v.(bool); ok {
			dst.SetBool(b)
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, ok := v.(int64); ok {
			if dst.OverflowInt(i) {
				return errors.Errorf("value %d overflows %s", i, dst.Type().String())
			}
			dst.SetInt(i)
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if i, ok := v.(int64); ok {
			if i < 0 || dst.OverflowUint(uint64(i)) {
				return errors.Errorf("value %d overflows %s", i, dst.Type().String())
			}
			dst.SetUint(uint64(i))
			return nil
		}
	case reflect.Float32, reflect.Float64:
		if f, ok := v.(float64); ok {
			if dst.OverflowFloat(f) {
				return errors.Errorf("value %v overflows %s", f, dst.Type().String())
			}
			dst.SetFloat(f)
			return nil
		}
	case reflect.Map:
		if m, ok := v.(map[string]any); ok {
			mt := dst.Type()
			nm := reflect.MakeMapWithSize(mt, len(m))
			for k, item := range m {
				ev := reflect.New(mt.Elem()).Elem()
				if err := assign(ev, item); err != nil {
					return errors.Wrapf(err, "key %q", k)
				}
				nm.SetMapIndex(reflect.ValueOf(k).Convert(mt.Key()), ev)
			}
			dst.Set(nm)
			return nil
		}
	case reflect.Slice:
		if s, ok := v.([]any); ok {
			ns := reflect.MakeSlice(dst.Type(), len(s), len(s))
			for i, item := range s {
				if err := assign(ns.Index(i), item); err != nil {
					return errors.Wrapf(err, "element %d", i)
				}
			}
			dst.Set(ns)
			return nil
		}
	case reflect.Array:
		if s, ok := v.([]any); ok {
			if len(s) > dst.Len() {
				return errors.Errorf("expected at most %d elements, got %d", dst.Len(), len(s))
			}
			for i, item := range s {
				if err := assign(dst.Index(i), item); err != nil {
					return errors.Wrapf(err, "element %d", i)
				}
			}
			return nil
		}
	}
	return errors.Errorf("cannot assign %s to %s", describe(v), dst.Type().String())
}
