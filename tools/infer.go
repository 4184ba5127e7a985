package tools

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/schema"
)

// Describer can be implemented by a tool input type
// to provide the default tool description.
type Describer interface {
	Description() string
}

// InferParams returns the parameter schema of the struct type t.
// Each JSON-visible field is a parameter, in declared order.
// The result is deterministic for the same type.
func InferParams(t reflect.Type) ([]Param, error) {
	if t == nil {
		return nil, schemaError("", "", "input type is nil")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, schemaError("", "", "input type must be a struct, got %s", t.String())
	}

	// check all types before the reflector sees them
	types := map[string][2]ParamType{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, ok := schema.FieldName(f)
		if !ok {
			continue
		}
		if f.Anonymous {
			return nil, schemaError("", name, "%s: embedded field %s is not supported", t.String(), f.Name)
		}
		typ, items, err := paramTypeOf(f.Type)
		if err != nil {
			return nil, schemaError("", name, "%s: parameter %q: %s", t.String(), name, err.Error())
		}
		types[name] = [2]ParamType{typ, items}
	}

	fields, err := schema.Fields(t)
	if err != nil {
		return nil, schemaError("", "", "%s: %s", t.String(), err.Error())
	}

	params := make([]Param, 0, len(fields))
	for _, f := range fields {
		tt := types[f.Name]
		typ, items := tt[0], tt[1]

		annotated := ParamType(f.SchemaType)
		switch {
		case typ == "":
			// interface type, must be annotated
			if !annotated.IsValid() {
				return nil, schemaError("", f.Name, "%s: parameter %q: cannot infer type of %s, annotate it with `jsonschema:\"type=...\"`",
					t.String(), f.Name, f.Type.String())
			}
			typ = annotated
			if ParamType(f.ItemsType).IsPrimitive() {
				items = ParamType(f.ItemsType)
			}
		case annotated != "" && annotated != typ:
			return nil, schemaError("", f.Name, "%s: parameter %q: type annotation %q conflicts with %s",
				t.String(), f.Name, annotated, f.Type.String())
		}

		params = append(params, Param{
			Name:        f.Name,
			Type:        typ,
			Items:       items,
			Description: f.Description,
			Required:    f.Required,
			Default:     f.Default,
		})
	}
	return params, nil
}

var errorType = reflect.TypeFor[error]()

// paramTypeOf returns the parameter type and items type of the Go type.
// Empty type is returned for interfaces, which must be annotated.
func paramTypeOf(t reflect.Type) (ParamType, ParamType, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
		if t.Kind() == reflect.Pointer {
			return "", "", errors.Errorf("pointer to pointer is not supported")
		}
	}

	if typ := primitiveTypeOf(t); typ != "" {
		return typ, "", nil
	}

	switch t.Kind() {
	case reflect.Interface:
		if t.NumMethod() > 0 || t.Implements(errorType) {
			return "", "", errors.Errorf("interface %s is not supported", t.String())
		}
		return "", "", nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return "", "", errors.Errorf("map key must be string, got %s", t.Key().String())
		}
		elem := t.Elem()
		if elem.Kind() == reflect.Interface && elem.NumMethod() == 0 {
			return TypeObject, "", nil
		}
		if items := primitiveTypeOf(elem); items != "" {
			return TypeObject, items, nil
		}
		return "", "", errors.Errorf("map value must be primitive or any, got %s", elem.String())
	case reflect.Slice, reflect.Array:
		elem := t.Elem()
		if t.Kind() == reflect.Slice && elem.Kind() == reflect.Uint8 {
			return "", "", errors.Errorf("%s is not supported, use string", t.String())
		}
		if elem.Kind() == reflect.Interface && elem.NumMethod() == 0 {
			return TypeArray, "", nil
		}
		if items := primitiveTypeOf(elem); items != "" {
			return TypeArray, items, nil
		}
		return "", "", errors.Errorf("sequence element must be primitive, got %s", elem.String())
	}

	return "", "", errors.Errorf("type %s is not supported", t.String())
}

func primitiveTypeOf(t reflect.Type) ParamType {
	switch t.Kind() {
	case reflect.String:
		return TypeString
	case reflect.Bool:
		return TypeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInteger
	case reflect.Float32, reflect.Float64:
		return TypeNumber
	}
	return ""
}
